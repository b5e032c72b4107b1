package main

import (
	"github.com/juankaspain/vuelosrobot-sub000/internal/cli"
)

func main() {
	cli.Execute()
}
