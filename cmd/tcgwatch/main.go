package main

import (
	"tcgwatch/cmd/tcgwatch/commands"
	"tcgwatch/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
