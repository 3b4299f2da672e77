package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tanq16/pulldown/internal/transfer"
)

const Help = "a URL add · p [ID] toggle · s [ID] pause · r [ID] resume · c [ID] cancel · j/k select · q quit"

var ErrUnknownCommand = errors.New("unknown command")

type op int

const (
	opAdd op = iota
	opToggle
	opPause
	opResume
	opCancel
	opNext
	opPrev
	opQuit
)

// command is one parsed input line. id is 0 when the line names no download,
// in which case the selected one is used.
type command struct {
	op  op
	url string
	id  transfer.ID
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, ErrUnknownCommand
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if strings.Contains(fields[0], "://") {
		return command{op: opAdd, url: fields[0]}, nil
	}
	switch name {
	case "a", "add":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: a URL")
		}
		return command{op: opAdd, url: args[0]}, nil
	case "q", "quit", "exit":
		return command{op: opQuit}, nil
	case "j", "down":
		return command{op: opNext}, nil
	case "k", "up":
		return command{op: opPrev}, nil
	}

	var o op
	switch name {
	case "p", "toggle":
		o = opToggle
	case "s", "pause":
		o = opPause
	case "r", "resume":
		o = opResume
	case "c", "cancel":
		o = opCancel
	default:
		return command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	cmd := command{op: o}
	switch len(args) {
	case 0:
	case 1:
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return command{}, fmt.Errorf("invalid download id %q", args[0])
		}
		cmd.id = transfer.ID(id)
	default:
		return command{}, fmt.Errorf("usage: %s [ID]", name)
	}
	return cmd, nil
}
