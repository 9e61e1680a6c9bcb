// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// requestValidator reports fields by their JSON names
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// fieldMessages maps a JSON field and a failed tag to a client message.
// Slice elements are keyed as "field[]".
type fieldMessages map[string]map[string]string

var titleMessages = map[string]string{
	"required": "title is required",
	"max":      "title is too long",
}

var createGameMessages = fieldMessages{
	"title":        titleMessages,
	"items":        {"required": "items must not be empty", "min": "items must not be empty", "unique": "items must be unique"},
	"items[]":      {"required": "items must not contain blank names"},
	"categories":   {"required": "categories must not be empty", "min": "categories must not be empty", "unique": "categories must be unique"},
	"categories[]": {"required": "categories must not contain blank names"},
	"voting_mode":  {"oneof": "voting_mode must be public, private or restrictive"},
}

var updateTitleMessages = fieldMessages{
	"title": titleMessages,
}

// validateRequest checks the validate tags of req and returns the message
// of the first failure, or "" when req is valid.
func validateRequest(req any, messages fieldMessages) string {
	err := requestValidator().Struct(req)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			field := verr.Field()
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i] + "[]"
			}
			if msg, ok := messages[field][verr.Tag()]; ok {
				return msg
			}
		}
	}
	return "invalid request"
}
