package complaint

import "errors"

var (
	ErrNotFound        = errors.New("complaint not found")
	ErrDuplicateSerial = errors.New("complaint serial already exists")
)

const (
	ReplacementReceived = "Yes"
	ReplacementPending  = "No"
)

// Record is one complaint row. Absent values are nil, never "".
type Record struct {
	Serial              string  `json:"serial"`
	FarmerName          *string `json:"farmerName"`
	ComplaintBrief      *string `json:"complaintBrief"`
	MaterialSupplyDate  *string `json:"materialSupplyDate"`
	ComplainDate        *string `json:"complainDate"`
	SolveDate           *string `json:"solveDate"`
	SolveDays           *int    `json:"solveDays"`
	CloseDate           *string `json:"closeDate"`
	CloseDays           *int    `json:"closeDays"`
	ComplainType        *string `json:"complainType"`
	DealerName          *string `json:"dealerName"`
	AreaManager         *string `json:"areaManager"`
	Status              *string `json:"status"`
	SolutionDescription *string `json:"solutionDescription"`
	ReplacementReceived *string `json:"replacementReceived"`
	ComplainForm        *string `json:"complainForm"`
	Photo               *string `json:"photo"`
	Video               *string `json:"video"`
}

// Attachments lists the stored file names accompanying a form submission.
type Attachments struct {
	ComplainForm []string
	Photo        []string
	Video        []string
}

func (a Attachments) Empty() bool {
	return len(a.ComplainForm) == 0 && len(a.Photo) == 0 && len(a.Video) == 0
}

func (a Attachments) All() []string {
	names := make([]string, 0, len(a.ComplainForm)+len(a.Photo)+len(a.Video))
	names = append(names, a.ComplainForm...)
	names = append(names, a.Photo...)
	return append(names, a.Video...)
}

// SortFields lists the attributes a listing may be ordered by.
var SortFields = []string{
	"serial",
	"farmerName",
	"complaintBrief",
	"materialSupplyDate",
	"complainDate",
	"solveDate",
	"solveDays",
	"closeDate",
	"closeDays",
	"complainType",
	"dealerName",
	"areaManager",
	"status",
	"replacementReceived",
}

const DefaultSortField = "serial"

func ValidSortField(field string) bool {
	for _, candidate := range SortFields {
		if candidate == field {
			return true
		}
	}
	return false
}

type ListQuery struct {
	Page     int
	PageSize int
	SortBy   string
	Desc     bool
}

// Offset is zero for unpaginated listings.
func (q ListQuery) Offset() int {
	if q.PageSize <= 0 || q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

type Page struct {
	Records    []Record
	Total      int
	Page       int
	PageSize   int
	Offset     int
	IsLastPage bool
}

func ptr[T any](v T) *T {
	return &v
}
