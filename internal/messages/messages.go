// Package messages holds the user-facing failure and confirmation texts.
// The defaults are Spanish, matching the audience of the service; deployments
// can override any key with a YAML catalog pointed at by MESSAGES_PATH.
package messages

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Well-known catalog keys.
const (
	KeyValidationFailed   = "validation_failed"
	KeyPasswordMismatch   = "password_mismatch"
	KeyPasswordTooShort   = "password_too_short"
	KeyPasswordNoSpecial  = "password_no_special"
	KeyEmailTaken         = "email_taken"
	KeyInvalidCredentials = "invalid_credentials"
	KeyLoginOK            = "login_ok"
	KeyUserNotFound       = "user_not_found"
	KeyEventNotFound      = "event_not_found"
	KeyInvalidCategory    = "invalid_category"
	KeyOwnerNotFound      = "owner_not_found"
	KeyProfileUpdated     = "profile_updated"
	KeyInternalError      = "internal_error"
	KeyWelcome            = "welcome"
)

var defaults = map[string]string{
	KeyValidationFailed:   "Solicitud inválida",
	KeyPasswordMismatch:   "Las contraseñas no coinciden",
	KeyPasswordTooShort:   "La contraseña debe tener al menos 8 caracteres.",
	KeyPasswordNoSpecial:  "La contraseña debe contener al menos un carácter especial.",
	KeyEmailTaken:         "El correo electrónico ya está registrado",
	KeyInvalidCredentials: "Usuario o contraseña inválidos",
	KeyLoginOK:            "Inicio de sesión exitoso",
	KeyUserNotFound:       "Usuario no encontrado",
	KeyEventNotFound:      "Evento no encontrado",
	KeyInvalidCategory:    "Categoría de evento inválida",
	KeyOwnerNotFound:      "El organizador del evento no existe",
	KeyProfileUpdated:     "Perfil actualizado correctamente",
	KeyInternalError:      "Error interno del servidor",
	KeyWelcome:            "¡Bienvenido a Happenit!",
}

// Catalog resolves message keys to localized text.
type Catalog struct {
	entries map[string]string
}

// Default returns a catalog containing only the built-in texts.
func Default() *Catalog {
	return &Catalog{entries: defaults}
}

// Load reads a YAML catalog from path and layers it over the defaults.
// An empty path returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read messages catalog: %w", err)
	}

	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse messages catalog: %w", err)
	}

	entries := make(map[string]string, len(defaults)+len(overrides))
	for key, text := range defaults {
		entries[key] = text
	}
	for key, text := range overrides {
		if text != "" {
			entries[key] = text
		}
	}
	return &Catalog{entries: entries}, nil
}

// Get returns the text for key, falling back to the key itself so a missing
// entry is visible rather than silent.
func (c *Catalog) Get(key string) string {
	if c == nil {
		return defaults[key]
	}
	if text, ok := c.entries[key]; ok {
		return text
	}
	return key
}
