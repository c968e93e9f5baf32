package domain

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

const MinPasswordLength = 8

// ValidateAlias checks the alias character set
func ValidateAlias(alias string) *ValidationError {
	if alias == "" {
		return &ValidationError{Field: "alias", Message: "Alias is required"}
	}
	if !aliasPattern.MatchString(alias) {
		return &ValidationError{Field: "alias", Message: "Alias can only contain letters, numbers, and hyphens"}
	}
	return nil
}

// ValidateDestinationURL requires an absolute URL with a scheme and host
func ValidateDestinationURL(raw string) *ValidationError {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{Field: "destinationUrl", Message: "Target URL is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ValidationError{Field: "destinationUrl", Message: "Please enter a valid URL"}
	}
	return nil
}

// Validate checks a create request before it is sent
func (in CreateLinkInput) Validate() error {
	var errs ValidationErrors
	if err := ValidateDestinationURL(in.DestinationURL); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateAlias(in.Alias); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks only the fields present in the patch
func (p LinkPatch) Validate() error {
	var errs ValidationErrors
	if p.DestinationURL != nil {
		if err := ValidateDestinationURL(*p.DestinationURL); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Alias != nil {
		if err := ValidateAlias(*p.Alias); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks an admin-created account before it is sent
func (in CreateUserInput) Validate() error {
	var errs ValidationErrors
	if err := (Credentials{Email: in.Email, Password: in.Password}).Validate(true); err != nil {
		if verrs, ok := err.(ValidationErrors); ok {
			errs = append(errs, verrs...)
		}
	}
	if in.Role != "" && in.Role != RoleAdmin && in.Role != RoleUser {
		errs = append(errs, &ValidationError{Field: "role", Message: "Role must be admin or user"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (p UserPatch) Validate() error {
	var errs ValidationErrors
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			errs = append(errs, &ValidationError{Field: "email", Message: "Please enter a valid email"})
		}
	}
	if p.Role != nil && *p.Role != RoleAdmin && *p.Role != RoleUser {
		errs = append(errs, &ValidationError{Field: "role", Message: "Role must be admin or user"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks login/register input. Password length is only enforced
// when registering; login defers to the server.
func (c Credentials) Validate(registering bool) error {
	var errs ValidationErrors
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, &ValidationError{Field: "email", Message: "Email is required"})
	} else if _, err := mail.ParseAddress(c.Email); err != nil {
		errs = append(errs, &ValidationError{Field: "email", Message: "Please enter a valid email"})
	}
	if c.Password == "" {
		errs = append(errs, &ValidationError{Field: "password", Message: "Password is required"})
	} else if registering && len(c.Password) < MinPasswordLength {
		errs = append(errs, &ValidationError{Field: "password", Message: "Password is too short"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
