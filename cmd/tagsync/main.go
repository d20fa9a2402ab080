package main

import (
	"os"

	"github.com/zhangzqs/blog-tags-sync/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
