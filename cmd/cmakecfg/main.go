package main

import "github.com/goplus/cmakecfg/cmd/cmakecfg/internal"

func main() {
	internal.Execute()
}
