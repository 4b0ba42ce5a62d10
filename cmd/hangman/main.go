package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/sakshamg567/hangman/internal/config"
	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/logger"
)

func main() {
	words := flag.String("words", "", "word list file, one word per line")
	flag.Parse()

	// the terminal belongs to the UI
	logger.EnableLogging(false)

	if err := run(*words); err != nil {
		fmt.Fprintln(os.Stderr, "hangman:", err)
		os.Exit(1)
	}
}

func run(wordsFile string) error {
	bank := hangman.DefaultWordBank()
	if wordsFile != "" {
		b, err := config.LoadWordBank(wordsFile)
		if err != nil {
			return err
		}
		bank = b
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	return newApp(screen, hangman.New(bank, nil)).run()
}
