// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Save writes the registry back with a refreshed lastUpdated stamp.
func Save(path string, reg *ActivityRegistry) error {
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ValidateInput checks job variables against the activity's published
// input schema. Activities without a schema accept anything.
func (a *Activity) ValidateInput(vars map[string]interface{}) error {
	if len(a.InputSchema) == 0 {
		return nil
	}
	result, err := validation.Validate(vars, a.InputSchema)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("input for %s rejected by schema: %s", a.TaskType, result.Describe())
	}
	return nil
}

// ValidateVariables parses raw job variables and checks them against the
// input schema. The worker manager calls this before a job reaches its
// handler.
func (a *Activity) ValidateVariables(raw []byte) error {
	if len(a.InputSchema) == 0 {
		return nil
	}
	var vars map[string]interface{}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return fmt.Errorf("input for %s is not a JSON object: %w", a.TaskType, err)
	}
	return a.ValidateInput(vars)
}
