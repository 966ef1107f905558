package main

import "aphro-backend/cmd"

func main() {
	cmd.Run()
}
