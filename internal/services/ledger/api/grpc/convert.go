package grpcapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

// toStruct converts a JSON-tagged value to a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(fields)
}

// fromStruct decodes a Struct into a JSON-tagged value.
func fromStruct(in *structpb.Struct, target any) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode struct: %w", err)
	}
	return json.Unmarshal(raw, target)
}

func invalidArgument(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
}

func stringField(in *structpb.Struct, name string) string {
	return strings.TrimSpace(in.GetFields()[name].GetStringValue())
}

func requiredString(in *structpb.Struct, name string) (string, error) {
	value := stringField(in, name)
	if value == "" {
		return "", invalidArgument(name + " is required")
	}
	return value, nil
}

func intField(in *structpb.Struct, name string) (int, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n := v.GetNumberValue()
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber || n != math.Trunc(n) {
		return 0, invalidArgument(name + " must be an integer")
	}
	return int(n), nil
}

func boolField(in *structpb.Struct, name string) bool {
	return in.GetFields()[name].GetBoolValue()
}

func structField(in *structpb.Struct, name string) map[string]any {
	v := in.GetFields()[name].GetStructValue()
	if v == nil {
		return nil
	}
	return v.AsMap()
}

func timeField(in *structpb.Struct, name string) (time.Time, error) {
	value := stringField(in, name)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalidArgument(name + " must be an RFC 3339 timestamp")
	}
	return t, nil
}
