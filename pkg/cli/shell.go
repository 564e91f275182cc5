// Package cli provides the interactive shell over an adapter session.
package cli

import (
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/cankit/ftcan/pkg/adapter"
	"github.com/cankit/ftcan/pkg/transport"
)

// Shell is an ishell backed interactive front end. One session at a
// time; connect replaces it, disconnect closes it.
type Shell struct {
	Interactive bool
	BaudRate    int

	Shell   *ishell.Shell
	session *adapter.Session
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly bool
	baudRate = transport.DefaultBaudRate
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.IntVar(&baudRate, "baud", baudRate, "Serial baud rate.")
}

// New creates a shell with the command set registered.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		BaudRate:    baudRate,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// Main is the canutil entrypoint: parse flags, run the shell.
func Main() {
	flag.Parse()
	if err := New().Run(flag.Args()); err != nil {
		log.Fatalln(err)
	}
}

// shellFrom gets Shell from ishell context.
func shellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// needSession wraps command funcs that require a connected session.
func needSession(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if shellFrom(c).session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Session returns the current session, nil when disconnected.
func (s *Shell) Session() *adapter.Session {
	return s.session
}

// Run processes args in eval mode or starts the interactive loop.
func (s *Shell) Run(args []string) error {
	defer s.disconnect()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			return err
		}
		if !s.Interactive {
			return nil
		}
	}
	if s.Interactive {
		s.Shell.Run()
	}
	return nil
}

func (s *Shell) connect(path string) error {
	session := adapter.New()
	if err := session.Connect(path, s.BaudRate); err != nil {
		return err
	}
	s.disconnect()
	s.session = session
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", path))
	return nil
}

func (s *Shell) disconnect() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	s.Shell.SetPrompt(unconnectedPrompt)
}
