// Beacon - Live Location Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built lazily and shared; struct metadata is
// cached by the library after the first call, so ValidateStruct is cheap on
// the publish hot path.
//
// # Usage
//
//	type PublishRequest struct {
//	    SenderID string   `json:"sender_id" validate:"required,senderid"`
//	    Lat      *float64 `json:"lat" validate:"required,latitude"`
//	    Lon      *float64 `json:"lon" validate:"required,longitude"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code / apiErr.Message
//	}
//
// # Field Names
//
// Error messages use the json tag name of the field when present, so the
// names in an error match the names the client sent.
//
// # Custom Validators
//
//   - senderid: non-blank, at most 254 bytes, no control characters
package validation
