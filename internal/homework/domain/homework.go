// Package domain holds homework assignments and their attachment records.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Homework is an assignment, optionally tied to a lesson and a teacher.
// Published is set by the store at creation time.
type Homework struct {
	ID            int64      `json:"id"`
	InstitutionID int64      `json:"-"`
	Published     time.Time  `json:"published"`
	Due           *time.Time `json:"due"`
	LessonID      *int64     `json:"lesson_id"`
	TeacherID     *int64     `json:"teacher_id"`
}

// HomeworkDetail is a homework row joined with its link targets' names and
// its attachments, the shape the listing endpoint returns.
type HomeworkDetail struct {
	Homework
	LessonName  *string      `json:"lesson"`
	TeacherName *string      `json:"teacher"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is file metadata hanging off a homework. Only the name is
// kept; file contents live outside this service.
type Attachment struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	HomeworkID    int64  `json:"-"`
	FileName      string `json:"file_name"`
}

var ErrInvalidFileName = errors.New("invalid file name")

const MaxFileNameLen = 200

// DueLayout is the wire format of a homework due timestamp.
const DueLayout = "2006-01-02 15:04:05"

var fileNameBadChars = regexp.MustCompile(`[<>:?"*|/\\]`)

// reservedFileNames are Windows device names; a file named after one can
// never be saved on a client running Windows.
var reservedFileNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidateFileName checks an attachment file name: no path separators or
// other characters unsafe on common filesystems, no control characters, no
// reserved device names, no trailing dot or space.
func ValidateFileName(name string) error {
	if name == "" || len(name) > MaxFileNameLen {
		return ErrInvalidFileName
	}
	if name == "." || name == ".." {
		return ErrInvalidFileName
	}
	if fileNameBadChars.MatchString(name) {
		return ErrInvalidFileName
	}
	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, " ") {
		return ErrInvalidFileName
	}
	stem, _, _ := strings.Cut(name, ".")
	if _, reserved := reservedFileNames[strings.ToUpper(stem)]; reserved {
		return ErrInvalidFileName
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 32 {
			return ErrInvalidFileName
		}
	}
	return nil
}
