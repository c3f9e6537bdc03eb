package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/san-kum/pidtune/internal/process"
)

func formFloat(r *http.Request, name string, def float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest("%s: %q is not a number", name, v)
	}
	return f, nil
}

func formInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s: %q is not an integer", name, v)
	}
	return i, nil
}

func formRequired(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return "", badRequest("%s is required", name)
	}
	return v, nil
}

func formRequiredFloat(r *http.Request, name string) (float64, error) {
	if _, err := formRequired(r, name); err != nil {
		return 0, err
	}
	return formFloat(r, name, 0)
}

// formModel reads k, tau and theta. Unlike the tuner, which reports the
// first invalid parameter, this rejects the whole triple up front.
func formModel(r *http.Request) (process.FOPDT, error) {
	var m process.FOPDT
	var err error
	if m.Gain, err = formRequiredFloat(r, "k"); err != nil {
		return m, err
	}
	if m.TimeConstant, err = formRequiredFloat(r, "tau"); err != nil {
		return m, err
	}
	if m.DeadTime, err = formRequiredFloat(r, "theta"); err != nil {
		return m, err
	}
	if m.Gain <= 0 || m.TimeConstant <= 0 || m.DeadTime < 0 {
		return m, badRequest("invalid parameters: k and tau must be positive, theta must be non-negative")
	}
	return m, nil
}

// formMethod accepts both "metodo" and "method".
func formMethod(r *http.Request, def process.Method) (process.Method, error) {
	v := r.FormValue("metodo")
	if v == "" {
		v = r.FormValue("method")
	}
	if v == "" {
		return def, nil
	}
	m, err := process.ParseMethod(v)
	if err != nil {
		return "", badRequest("%v", err)
	}
	return m, nil
}

// formWindows parses a JSON list; anything else yields def.
func formWindows(r *http.Request, def []int) []int {
	v := strings.TrimSpace(r.FormValue("window_lengths"))
	if v == "" {
		return def
	}
	var windows []int
	if err := json.Unmarshal([]byte(v), &windows); err != nil || len(windows) == 0 {
		return def
	}
	return windows
}
