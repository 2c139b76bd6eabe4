package providers

import (
	"errors"
	"fmt"
	"ponudaplus/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	return c.validateStore()
}

// validateStore checks the fields that only one of the drivers needs.
func (c *CnfValidator) validateStore() error {
	s := c.conf.Store
	switch s.Driver {
	case "sqlite":
		if s.Path == "" {
			return errors.New("invalid config: store.path is required for the sqlite driver")
		}
	case "appwrite":
		if s.Endpoint == "" || s.ProjectID == "" || s.DatabaseID == "" {
			return errors.New("invalid config: store.endpoint, store.project and store.database are required for the appwrite driver")
		}
	}
	return nil
}
