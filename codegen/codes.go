// Package codegen implements the structured document code scheme of the
// master list, and the generation of new codes against it.
package codegen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sigqms/doccontrol/models"
)

// ErrInvalidArgument is returned when a request fails a business rule check
var ErrInvalidArgument = errors.New("invalid argument")

// codeRegex the structured document code format, e.g. "RE-GS-01"
var codeRegex = regexp.MustCompile(`^(MN|PR|RE|IN)-(DP|GS|GC|GP|GH|GR|GA)-(\d{2,})$`)

var processPrefixes = map[models.ProcessENUMType]string{
	models.ProcessStrategicPlanning: "DP",
	models.ProcessQualitySafety:     "GS",
	models.ProcessClients:           "GC",
	models.ProcessProduction:        "GP",
	models.ProcessHumanTalent:       "GH",
	models.ProcessSuppliers:         "GR",
	models.ProcessAdministrative:    "GA",
}

var docTypePrefixes = map[models.DocumentTypeENUMType]string{
	models.DocumentTypeManual:        "MN",
	models.DocumentTypeProcedure:     "PR",
	models.DocumentTypeRecord:        "RE",
	models.DocumentTypeInstructional: "IN",
}

// ParsedCode the components of a structured document code
type ParsedCode struct {
	// DocTypePrefix document type segment, e.g. "RE"
	DocTypePrefix string
	// ProcessPrefix process segment, e.g. "GS"
	ProcessPrefix string
	// Sequence 1-based sequence number
	Sequence int
}

/*
ProcessPrefix map an organizational process to its code segment

	@param process models.ProcessENUMType - the process
	@returns the code segment
*/
func ProcessPrefix(process models.ProcessENUMType) (string, error) {
	prefix, ok := processPrefixes[process]
	if !ok {
		return "", fmt.Errorf("%w: '%s' is not a known process", ErrInvalidArgument, process)
	}
	return prefix, nil
}

/*
DocTypePrefix map a controlled document type to its code segment

	@param docType models.DocumentTypeENUMType - the document type
	@returns the code segment
*/
func DocTypePrefix(docType models.DocumentTypeENUMType) (string, error) {
	prefix, ok := docTypePrefixes[docType]
	if !ok {
		return "", fmt.Errorf("%w: '%s' is not a known document type", ErrInvalidArgument, docType)
	}
	return prefix, nil
}

/*
BuildPrefix assemble the code prefix shared by every document of one type
under one process, e.g. "RE-GS-"

	@param docType models.DocumentTypeENUMType - the document type
	@param process models.ProcessENUMType - the process
	@returns the code prefix
*/
func BuildPrefix(
	docType models.DocumentTypeENUMType, process models.ProcessENUMType,
) (string, error) {
	typeSegment, err := DocTypePrefix(docType)
	if err != nil {
		return "", err
	}
	processSegment, err := ProcessPrefix(process)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-", typeSegment, processSegment), nil
}

/*
FormatCode render a full document code from its prefix and sequence number.

Sequence numbers are zero padded to two digits, and grow past "99" without
truncation.

	@param prefix string - the code prefix, e.g. "RE-GS-"
	@param sequence int - the 1-based sequence number
	@returns the document code
*/
func FormatCode(prefix string, sequence int) string {
	return fmt.Sprintf("%s%02d", prefix, sequence)
}

/*
ValidateCodeFormat check a document code against the structured format

	@param code string - the code to check
*/
func ValidateCodeFormat(code string) error {
	if !codeRegex.MatchString(code) {
		return fmt.Errorf("'%s' does not match the document code format", code)
	}
	return nil
}

/*
ParseCode split a document code into its components

	@param code string - the code to parse
	@returns the code components
*/
func ParseCode(code string) (ParsedCode, error) {
	matches := codeRegex.FindStringSubmatch(code)
	if matches == nil {
		return ParsedCode{}, fmt.Errorf("'%s' does not match the document code format", code)
	}

	sequence, err := strconv.Atoi(matches[3])
	if err != nil {
		return ParsedCode{}, fmt.Errorf("'%s' carries a malformed sequence [%w]", code, err)
	}

	return ParsedCode{
		DocTypePrefix: matches[1],
		ProcessPrefix: matches[2],
		Sequence:      sequence,
	}, nil
}

/*
NextInSequence compute the next free code under a prefix given the occupied codes

The lowest free 1-based sequence number is used, so gaps left by retired
documents are refilled first.

	@param prefix string - the code prefix, e.g. "RE-GS-"
	@param takenCodes []string - the occupied codes under the prefix
	@returns the next free code
*/
func NextInSequence(prefix string, takenCodes []string) string {
	return FormatCode(prefix, firstFreeSequence(takenCodes))
}

// firstFreeSequence find the lowest 1-based sequence number absent from the
// taken codes under one prefix. Codes that fail to parse are skipped.
func firstFreeSequence(takenCodes []string) int {
	taken := map[int]bool{}
	for _, code := range takenCodes {
		parsed, err := ParseCode(code)
		if err != nil {
			continue
		}
		taken[parsed.Sequence] = true
	}

	sequence := 1
	for taken[sequence] {
		sequence++
	}
	return sequence
}
