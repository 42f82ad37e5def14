package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// ExtractString safely extracts a string from a DynamoDB Streams attribute map
func ExtractString(image map[string]types.AttributeValue, field string) string {
	if attr, ok := image[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractInt safely extracts an integer from a DynamoDB Streams attribute map
func ExtractInt(image map[string]types.AttributeValue, field string) int {
	if attr, ok := image[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			if n, err := strconv.Atoi(v.Value); err == nil {
				return n
			}
		}
	}
	return 0
}

// ExtractInt64 safely extracts a 64-bit integer from a DynamoDB Streams attribute map
func ExtractInt64(image map[string]types.AttributeValue, field string) int64 {
	if attr, ok := image[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// ExtractFloat safely extracts a float and reports whether the field was present
func ExtractFloat(image map[string]types.AttributeValue, field string) (float64, bool) {
	if attr, ok := image[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// ExtractStringSet safely extracts a string set (or list of strings) from a
// DynamoDB Streams attribute map
func ExtractStringSet(image map[string]types.AttributeValue, field string) []string {
	attr, ok := image[field]
	if !ok {
		return nil
	}
	switch v := attr.(type) {
	case *types.AttributeValueMemberSS:
		return append([]string(nil), v.Value...)
	case *types.AttributeValueMemberL:
		var out []string
		for _, item := range v.Value {
			if s, ok := item.(*types.AttributeValueMemberS); ok {
				out = append(out, s.Value)
			}
		}
		return out
	}
	return nil
}
