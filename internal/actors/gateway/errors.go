package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rbroggi/clients/internal/core/model"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorBody struct {
	Error string `json:"error"`
}

type validationErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// toStatusError translates usecase errors into gRPC status errors. Errors already
// carrying a status pass through.
func toStatusError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationStatus(validationErr).Err()
	case errors.Is(err, model.ErrDuplicateEmail), errors.Is(err, model.ErrDuplicateTaxID):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	}

	log.WithError(err).Error("unexpected error serving request")
	return status.Error(codes.Internal, "internal error")
}

func clientNotFound(id int64) error {
	return status.Error(codes.NotFound, fmt.Sprintf("client with ID %d not found", id))
}

func validationStatus(validationErr *model.ValidationError) *status.Status {
	fields := make([]string, 0, len(validationErr.Fields))
	for field := range validationErr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	badRequest := &errdetails.BadRequest{}
	for _, field := range fields {
		badRequest.FieldViolations = append(badRequest.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: validationErr.Fields[field],
		})
	}

	st := status.New(codes.InvalidArgument, validationErr.Message)
	withDetails, err := st.WithDetails(badRequest)
	if err != nil {
		return st
	}
	return withDetails
}

// errorHandler writes status errors as {"error": msg}, or as {"message", "errors"}
// when the status carries field violations.
func errorHandler(ctx context.Context, _ *runtime.ServeMux, marshaler runtime.Marshaler, w http.ResponseWriter, _ *http.Request, err error) {
	httpStatus := 0
	var httpStatusErr *runtime.HTTPStatusError
	if errors.As(err, &httpStatusErr) {
		httpStatus = httpStatusErr.HTTPStatus
		err = httpStatusErr.Err
	}

	st := status.Convert(err)
	if httpStatus == 0 {
		httpStatus = runtime.HTTPStatusFromCode(st.Code())
	}

	var body interface{} = errorBody{Error: st.Message()}
	for _, detail := range st.Details() {
		if badRequest, ok := detail.(*errdetails.BadRequest); ok {
			fields := make(map[string]string, len(badRequest.GetFieldViolations()))
			for _, violation := range badRequest.GetFieldViolations() {
				fields[violation.GetField()] = violation.GetDescription()
			}
			body = validationErrorBody{Message: st.Message(), Errors: fields}
		}
	}

	buf, mErr := marshaler.Marshal(body)
	if mErr != nil {
		log.WithError(mErr).Error("failed to marshal error body")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", marshaler.ContentType(body))
	w.WriteHeader(httpStatus)
	if _, wErr := w.Write(buf); wErr != nil {
		log.WithError(wErr).Debug("failed to write error body")
	}
}
