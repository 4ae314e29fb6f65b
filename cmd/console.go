package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	app "leaf-doctor/internal/application"
	"leaf-doctor/internal/domain/entity"
	"leaf-doctor/internal/domain/prompt"
)

const consoleHelp = `Commands:
  load <path>   describe a leaf photo (JPG or PNG)
  diagnose      diagnose the loaded photo
  translate     translate results to the current language
  lang <code>   switch language (%s)
  show          print current results
  help          this help
  quit          exit`

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive diagnosis session in the terminal",
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, defaultLanguage, err := buildContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	session, err := c.DiagnosisService.StartSession(ctx, defaultLanguage)
	if err != nil {
		return err
	}

	con := &console{diagnosis: c.DiagnosisService, catalog: c.Catalog, sessionID: session.ID, out: os.Stdout}
	defer func() {
		_ = c.DiagnosisService.Close(context.Background(), con.sessionID)
	}()

	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	con.help()
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF или Ctrl-C
			break
		}
		quit, err := con.exec(ctx, line)
		if err != nil {
			fmt.Fprintln(con.out, "error:", err)
		}
		if quit {
			break
		}
	}
	return nil
}

// console выполняет команды консоли над одной сессией
type console struct {
	diagnosis *app.DiagnosisService
	catalog   *prompt.Catalog
	sessionID string
	out       io.Writer
}

// exec выполняет одну строку ввода, возвращает true для выхода
func (c *console) exec(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var (
		session *entity.Session
		err     error
	)
	switch strings.ToLower(name) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		c.help()
		return false, nil
	case "load":
		if arg == "" {
			return false, errors.New("usage: load <path>")
		}
		data, rerr := os.ReadFile(arg)
		if rerr != nil {
			return false, rerr
		}
		session, err = c.diagnosis.Submit(ctx, c.sessionID, data, filepath.Base(arg))
	case "diagnose":
		session, err = c.diagnosis.Diagnose(ctx, c.sessionID)
	case "translate":
		session, err = c.diagnosis.Translate(ctx, c.sessionID)
	case "lang":
		language, perr := entity.ParseLanguage(arg)
		if perr != nil {
			return false, perr
		}
		if !c.catalog.Supports(language) {
			return false, fmt.Errorf("%w: %s has no prompts", entity.ErrUnknownLanguage, language.Name())
		}
		session, err = c.diagnosis.SetLanguage(ctx, c.sessionID, language)
	case "show":
		session, err = c.diagnosis.Get(ctx, c.sessionID)
	default:
		return false, fmt.Errorf("unknown command %q, type help", name)
	}

	if session != nil {
		c.print(app.NewSessionView(session))
	}
	return false, err
}

func (c *console) help() {
	codes := make([]string, 0)
	for _, l := range c.catalog.Languages() {
		codes = append(codes, l.Code())
	}
	fmt.Fprintf(c.out, consoleHelp+"\n", strings.Join(codes, ", "))
}

func (c *console) print(v *app.SessionView) {
	fmt.Fprintf(c.out, "[%s, %s]\n", v.State, v.Language.Name())
	if v.State == entity.SessionIdle {
		fmt.Fprintln(c.out, "No photo loaded.")
		return
	}
	if v.DisplayDescription != "" {
		fmt.Fprintf(c.out, "\nDescription:\n%s\n", v.DisplayDescription)
	}
	if v.DisplayDiagnosis != "" {
		fmt.Fprintf(c.out, "\nDiagnosis:\n%s\n", v.DisplayDiagnosis)
	} else if v.CanDiagnose {
		fmt.Fprintln(c.out, "\nType diagnose to get the diagnosis.")
	}
	for _, w := range v.Warnings {
		fmt.Fprintln(c.out, "warning:", w)
	}
}
