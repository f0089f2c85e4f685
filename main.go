package main

import "github.com/maxvaer/actuatorhunt/cmd"

func main() {
	cmd.Execute()
}
