package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jjenkins/evcms/internal/cmserr"
)

// AuthParams are the parameters of the auth action
type AuthParams struct {
	Login string `json:"login" validate:"omitempty,max=64"`
}

// EntriesByFolderParams are the parameters of the entriesByFolder action
type EntriesByFolderParams struct {
	Folder    string `json:"folder" validate:"required"`
	Extension string `json:"extension" validate:"omitempty,max=16"`
	Depth     int    `json:"depth" validate:"gte=0,lte=10"`
}

// GetEntryParams are the parameters of the getEntry action
type GetEntryParams struct {
	Path string `json:"path" validate:"required"`
}

// PersistEntryParams are the parameters of the persistEntry action. The path
// and raw content may be given at the top level or inside entry
type PersistEntryParams struct {
	Path    string        `json:"path"`
	Raw     *string       `json:"raw"`
	Message string        `json:"message"`
	Entry   *EntryPayload `json:"entry,omitempty"`
	Options *struct {
		CommitMessage string `json:"commitMessage"`
	} `json:"options,omitempty"`
}

// EntryPayload is the nested entry form of PersistEntryParams
type EntryPayload struct {
	Path string  `json:"path"`
	Raw  *string `json:"raw"`
}

type persistInput struct {
	Path    string  `json:"path" validate:"required"`
	Raw     *string `json:"raw" validate:"required"`
	Message string  `json:"message"`
}

func (p PersistEntryParams) normalize() persistInput {
	in := persistInput{Path: p.Path, Raw: p.Raw, Message: p.Message}
	if p.Entry != nil {
		if in.Path == "" {
			in.Path = p.Entry.Path
		}
		if in.Raw == nil {
			in.Raw = p.Entry.Raw
		}
	}
	if in.Message == "" && p.Options != nil {
		in.Message = p.Options.CommitMessage
	}
	return in
}

// DeleteEntryParams are the parameters of the deleteEntry action
type DeleteEntryParams struct {
	Path    string `json:"path" validate:"required"`
	Message string `json:"message"`
	Options *struct {
		CommitMessage string `json:"commitMessage"`
	} `json:"options,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationError converts validator output into a bad request
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return cmserr.BadRequest("invalid parameters")
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return cmserr.BadRequest("missing required parameter: %s", fe.Field())
	}
	return cmserr.BadRequest("invalid parameter %s: failed %s", fe.Field(), fe.Tag())
}
