package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartfinance/smartfinance/internal/observability"
)

// SelectModel lists the backend's models and picks the one used for every
// generation call: the first name containing "flash", else the first
// containing "pro", else the first usable model.
func SelectModel(ctx context.Context, client Client) (string, error) {
	start := time.Now()
	models, err := client.ListModels(ctx)
	observability.ObserveGeneration(observability.StageList, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return PreferredModel(models)
}

func PreferredModel(models []Model) (string, error) {
	usable := make([]string, 0, len(models))
	for _, model := range models {
		if model.Supports(MethodGenerateContent) {
			usable = append(usable, model.Name)
		}
	}
	if len(usable) == 0 {
		return "", fmt.Errorf("select model: %w", ErrNoModels)
	}
	for _, marker := range []string{"flash", "pro"} {
		for _, name := range usable {
			if strings.Contains(name, marker) {
				return name, nil
			}
		}
	}
	return usable[0], nil
}
