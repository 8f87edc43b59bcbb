package main

import "selection_assistant/cmd"

func main() {
	cmd.Execute()
}
