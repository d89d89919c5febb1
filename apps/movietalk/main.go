package main

import (
	movietalk "github.com/nothinking/movietalk/apps/movietalk/cmd"
)

func main() {
	movietalk.Execute()
}
