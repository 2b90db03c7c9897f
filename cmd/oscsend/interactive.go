package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eiannone/keyboard"
	"github.com/sony/gobreaker/v2"

	"github.com/showcontroller/osctools/osc"
)

// keyAction maps a key press to what the interactive loop should do.
type keyAction int

const (
	actionIgnore keyAction = iota
	actionSend
	actionQuit
)

func classifyKey(char rune, key keyboard.Key) keyAction {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q':
		return actionQuit
	case key == keyboard.KeySpace || key == keyboard.KeyEnter || char == ' ':
		return actionSend
	default:
		return actionIgnore
	}
}

// interactive sends data once, then again on every send key until a quit key
// is pressed or ctx is cancelled.
func interactive(ctx context.Context, client *osc.Client, data []byte, stdout io.Writer) error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("open keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Fprintf(stdout, "Sending to %s. Press space or enter to resend, esc or q to quit\r\n", client.Addr())

	sent := 0
	for {
		if err := client.Send(ctx, data); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return err
			}
			fmt.Fprintf(stdout, "send failed: %v\r\n", err)
		} else {
			sent++
			fmt.Fprintf(stdout, "sent #%d (%d bytes)\r\n", sent, len(data))
		}

		for {
			if ctx.Err() != nil {
				return nil
			}
			char, key, err := keyboard.GetKey()
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			action := classifyKey(char, key)
			if action == actionQuit {
				return nil
			}
			if action == actionSend {
				break
			}
		}
	}
}
