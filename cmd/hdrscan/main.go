package main

import "github.com/seg-flt/hdrscan/internal/cli"

func main() {
	cli.Execute()
}
