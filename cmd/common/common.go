// Package common holds helpers shared by the beatseek commands.
package common

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
)

// DefaultParamEnricher derives flag names and short flags from struct fields.
func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// ReadSource reads a whole chart file, or stdin when path is empty or "-".
func ReadSource(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
