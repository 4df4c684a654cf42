// Package seqid formats the human-readable identifiers used across the CRM
// and does the sequence arithmetic for period-scoped counters.
package seqid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CustomerPrefix is the period prefix for customer ids: two-digit year.
func CustomerPrefix(t time.Time) string {
	return t.Format("06") + "-"
}

// CustomerID formats YY-NNNN.
func CustomerID(t time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", CustomerPrefix(t), seq)
}

// ProjectPrefix is the period prefix for project ids: PROJ-YYMM-.
func ProjectPrefix(t time.Time) string {
	return "PROJ-" + t.Format("0601") + "-"
}

// ProjectID formats PROJ-YYMM-NNN.
func ProjectID(t time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", ProjectPrefix(t), seq)
}

// ParseSequence extracts the numeric suffix of id when it is prefix followed
// only by digits.
func ParseSequence(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	suffix := id[len(prefix):]
	if suffix == "" || strings.TrimLeft(suffix, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Highest returns the largest sequence among ids carrying prefix, 0 if none.
func Highest(ids []string, prefix string) int {
	max := 0
	for _, id := range ids {
		if n, ok := ParseSequence(id, prefix); ok && n > max {
			max = n
		}
	}
	return max
}

// Next returns the sequence that follows the highest existing one; 1 when
// no id carries prefix.
func Next(ids []string, prefix string) int {
	return Highest(ids, prefix) + 1
}

// Registry ids are not period scoped: EMP-NNN, VEND-NNN and SUB-NNN.
const (
	EmployeePrefix      = "EMP-"
	VendorPrefix        = "VEND-"
	SubcontractorPrefix = "SUB-"
)

func EmployeeID(seq int) string      { return fmt.Sprintf("%s%03d", EmployeePrefix, seq) }
func VendorID(seq int) string        { return fmt.Sprintf("%s%03d", VendorPrefix, seq) }
func SubcontractorID(seq int) string { return fmt.Sprintf("%s%03d", SubcontractorPrefix, seq) }

// EstimateID formats EST-<projectID>-<version>.
func EstimateID(projectID string, version int) string {
	return fmt.Sprintf("EST-%s-%d", projectID, version)
}

func NewTimeLogID() string { return "TL-" + uuid.NewString() }
func NewReceiptID() string { return "MATREC-" + uuid.NewString() }
func NewSubInvoiceID() string { return "SUBINV-" + uuid.NewString() }

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ProjectFolderName builds {customerID}-{projectID}-{safeName}, the storage
// folder for a project's files.
func ProjectFolderName(customerID, projectID, projectName string) string {
	return fmt.Sprintf("%s-%s-%s", customerID, projectID, unsafeChars.ReplaceAllString(projectName, "_"))
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeFileName strips path components and characters unsafe in object keys.
func SafeFileName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}
