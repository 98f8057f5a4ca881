package main

import (
	"fmt"
	sys "os"
)

func main() {
	defer func() { sys.Exit(3) }()

	if len(sys.Args) > 1 {
		fmt.Println("bye")
		sys.Exit(2) // want "do not call os.Exit inside main"
	}
	helper()
}

func helper() {
	sys.Exit(1)
}

type cmd struct{}

func (cmd) main() {
	sys.Exit(0)
}
