// Package api contains the HTTP handlers, request/response models, and
// error mapping for the REST surface. Handlers stay thin: decode and
// validate the request, call the corresponding service, and translate
// service errors into status codes through RespondWithMappedError.
package api
