// Package extract parses one export record into typed fields.
package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/roach88/customobjects/internal/ir"
)

// MinFields is the number of fields a record needs to be considered at all.
const MinFields = 6

// Zero-based positions of the fields a record contributes.
const (
	FieldActorClass = 1
	FieldLocation   = 2
	FieldRotation   = 3
	FieldMeshes     = 5
)

var (
	locationPattern  = regexp.MustCompile(`X=([-\d.]+),Y=([-\d.]+),Z=([-\d.]+)`)
	rotationPattern  = regexp.MustCompile(`Pitch=([-\d.]+),Yaw=([-\d.]+),Roll=([-\d.]+)`)
	blueprintPattern = regexp.MustCompile(`(DynamicClass|BlueprintGeneratedClass)'(.+?)'`)
	meshPattern      = regexp.MustCompile(`StaticMesh'(.+?)'`)
)

// ErrShortRecord is returned for records with fewer than MinFields fields.
var ErrShortRecord = errors.New("record has fewer than 6 fields")

// NumberError reports a coordinate or angle that matched the pattern but is
// not a number ("1.2.3", "-").
type NumberError struct {
	Field string
	Text  string
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %v", e.Field, e.Text, e.Err)
}

func (e *NumberError) Unwrap() error {
	return e.Err
}

// Row extracts every field of a record. Fields are extracted independently;
// the first numeric error aborts the row.
func Row(record []string) (ir.Fields, error) {
	if len(record) < MinFields {
		return ir.Fields{}, ErrShortRecord
	}

	var f ir.Fields
	var err error

	f.Location, err = Location(record[FieldLocation])
	if err != nil {
		return ir.Fields{}, err
	}

	f.Rotation, err = Rotation(record[FieldRotation])
	if err != nil {
		return ir.Fields{}, err
	}

	f.BlueprintPath = BlueprintPath(record[FieldActorClass])
	f.MeshPath = MeshPath(record[FieldMeshes])
	return f, nil
}

// Location parses "X=..,Y=..,Z=..". Returns nil when the pattern is absent
// or the rounded location is the origin.
func Location(s string) (*ir.Vec3, error) {
	m := locationPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}

	var v ir.Vec3
	for i, name := range []string{"X", "Y", "Z"} {
		n, err := roundField(name, m[i+1])
		if err != nil {
			return nil, err
		}
		v[i] = n
	}

	if v.IsZero() {
		return nil, nil
	}
	return &v, nil
}

// Rotation parses "Pitch=..,Yaw=..,Roll=..". Absent means no rotation.
func Rotation(s string) (ir.Rotation, error) {
	m := rotationPattern.FindStringSubmatch(s)
	if m == nil {
		return ir.Rotation{}, nil
	}

	var angles [3]int
	for i, name := range []string{"Pitch", "Yaw", "Roll"} {
		n, err := roundField(name, m[i+1])
		if err != nil {
			return ir.Rotation{}, err
		}
		angles[i] = n
	}
	return ir.Rotation{Pitch: angles[0], Yaw: angles[1], Roll: angles[2]}, nil
}

// BlueprintPath returns the class path from a DynamicClass'..' or
// BlueprintGeneratedClass'..' reference, or "".
func BlueprintPath(s string) string {
	m := blueprintPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[2]
}

// MeshPath returns the path from a StaticMesh'..' reference, or "".
func MeshPath(s string) string {
	m := meshPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// roundField parses text as a float and rounds half to even: 2.5 becomes 2,
// 3.5 becomes 4. Existing config blocks depend on this.
func roundField(field, text string) (int, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &NumberError{Field: field, Text: text, Err: err}
	}
	r := math.RoundToEven(f)
	// float64(math.MaxInt64) is 2^63, one past the largest int
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, &NumberError{Field: field, Text: text, Err: strconv.ErrRange}
	}
	return int(r), nil
}
