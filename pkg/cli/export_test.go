package cli

var RunInteractiveMode = runInteractiveMode
