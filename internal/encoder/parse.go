// internal/encoder/parse.go
package encoder

import (
	"errors"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	perrors "vehicle-pricing/internal/common/errors"
	"vehicle-pricing/internal/models"
)

// BucketCount is the modulus of the categorical hash buckets.
const BucketCount = 100

var (
	errEmptyValue   = errors.New("value is empty")
	errNotInteger   = errors.New("leading token is not an integer")
	errNotDecimal   = errors.New("leading token is not a decimal number")
	errNotFinite    = errors.New("leading token is not finite")
	errUnknownDoors = errors.New("door count is neither a known code nor an integer")
)

// doorCodes maps the spreadsheet date-autocorrect artifacts of the training data
// ("4-5" became "04-May", "2-3" became "02-Mar") back to the door counts the model saw.
// Keys are lowercased.
var doorCodes = map[string]int{
	"04-may": 4,
	"02-mar": 2,
	">5":     5,
}

// Bucket maps a lowercased categorical string to [0, BucketCount) with 32-bit FNV-1a.
// The hash is pinned so every instance and every restart agrees on the bucket.
func Bucket(value string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return int(h.Sum32() % BucketCount)
}

// parseMileage reads the leading integer of values such as "35000 km".
func parseMileage(raw string) (int, error) {
	token, ok := leadingToken(raw)
	if !ok {
		return 0, perrors.NewMalformedInput(models.FieldMileage, raw, errEmptyValue)
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, perrors.NewMalformedInput(models.FieldMileage, raw, errNotInteger)
	}
	return n, nil
}

// parseEngineVolume reads the displacement of values such as "2.5 Turbo".
// The turbo flag is a substring test on the whole value, independent of tokenization.
func parseEngineVolume(raw string) (float64, bool, error) {
	turbo := strings.Contains(strings.ToLower(raw), "turbo")

	token, ok := leadingToken(raw)
	if !ok {
		return 0, turbo, perrors.NewMalformedInput(models.FieldEngineVolume, raw, errEmptyValue)
	}
	vol, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, turbo, perrors.NewMalformedInput(models.FieldEngineVolume, raw, errNotDecimal)
	}
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return 0, turbo, perrors.NewMalformedInput(models.FieldEngineVolume, raw, errNotFinite)
	}
	return vol, turbo, nil
}

// parseDoors resolves a door code or a plain integer.
func parseDoors(raw string) (int, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if n, ok := doorCodes[token]; ok {
		return n, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, perrors.NewMalformedInput(models.FieldDoors, raw, errUnknownDoors)
	}
	return n, nil
}

func leadingToken(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
