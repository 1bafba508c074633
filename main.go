package main

import "github.com/jmehdipour/parcel-relay/cmd"

func main() {
	cmd.Execute()
}
