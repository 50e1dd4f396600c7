package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/oy3o/pwscore"
)

// console 交互式评估循环。输入 quit（大小写不敏感）或 EOF 结束。
type console struct {
	eval        *pwscore.Evaluator
	in          io.Reader
	out         io.Writer
	color       bool
	jsonOutput  bool
	interactive bool
}

func (c *console) run() error {
	// 行长度不设上限
	rd := bufio.NewReader(c.in)
	for {
		c.prompt()
		line, err := rd.ReadString('\n')
		switch {
		case errors.Is(err, io.EOF) && line == "":
			return nil
		case err != nil && !errors.Is(err, io.EOF):
			return err
		}
		password := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if strings.EqualFold(password, "quit") {
			if c.interactive {
				fmt.Fprintln(c.out, "\nExiting...")
			}
			return nil
		}

		res := c.eval.Evaluate(password)
		if c.jsonOutput {
			line, err := sonic.Marshal(res)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintf(c.out, "%s\n", line)
			continue
		}
		c.print(res)
	}
}

func (c *console) prompt() {
	if !c.interactive || c.jsonOutput {
		return
	}
	fmt.Fprintln(c.out, "=== Password Strength Checker ===")
	fmt.Fprintln(c.out, "\nEnter a password to check (or 'quit' to exit)")
	fmt.Fprint(c.out, "Password: ")
}

func (c *console) print(res pwscore.Result) {
	fmt.Fprintln(c.out, "\n=== Results ===")
	fmt.Fprintf(c.out, "\nStrength: %s (Score: %d/%d)\n", res.Strength, res.Score, res.MaxScore)
	fmt.Fprintf(c.out, "Entropy: %.2f bits\n", res.Entropy)
	fmt.Fprintln(c.out, "\nStrength Meter:")
	fmt.Fprintln(c.out, renderMeter(res.Score, res.MaxScore, c.color))

	if len(res.Feedback) > 0 {
		fmt.Fprintln(c.out, "\nImprovement suggestions:")
		for _, s := range res.Feedback {
			fmt.Fprintf(c.out, "• %s\n", s)
		}
	}
	fmt.Fprintln(c.out, "\n"+strings.Repeat("=", 50)+"\n")
}
