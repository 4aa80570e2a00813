package main

import "github.com/nguyentranbao-ct/storefront-gateway/cmd"

func main() {
	cmd.Execute()
}
