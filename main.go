package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/gyges/internal/gyges/cmd"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := gyges(); err != nil {
		logrus.Fatal(err)
	}
}

func gyges() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
