package types

// GradeRecord is the grade distribution of one course section in one term.
//
// Table: grade_distributions
//
// Text fields are copied verbatim from the registrar's RadGridExport CSV files.
// Grade buckets are head counts; a bucket missing from the export is stored as 0.
// Term is never read from the CSV, it is derived from the export's file name
// (e.g. "RadGridExport-Fall-2024.csv" -> "Fall 2024").
type GradeRecord struct {
	ID int64 `json:"id" db:"id"` // assigned by the database

	Term          string `json:"term" db:"term"`
	CrsSubjCd     string `json:"crs_subj_cd" db:"crs_subj_cd"`         // e.g. "CS"
	CrsNbr        string `json:"crs_nbr" db:"crs_nbr"`                 // e.g. "141"
	CrsSubjDesc   string `json:"crs_subj_desc" db:"crs_subj_desc"`     // e.g. "Computer Science"
	CRN           string `json:"crn" db:"crn"`                         // course reference number
	SchedTypeCd   string `json:"sched_type_cd" db:"sched_type_cd"`     // e.g. "LEC"
	SchedTypeDesc string `json:"sched_type_desc" db:"sched_type_desc"` // e.g. "Lecture"
	Itype         string `json:"itype" db:"itype"`                     // instruction type
	SessCd        string `json:"sess_cd" db:"sess_cd"`                 // session code
	CrsTitle      string `json:"crs_title" db:"crs_title"`
	DeptCd        string `json:"dept_cd" db:"dept_cd"`
	DeptName      string `json:"dept_name" db:"dept_name"`

	A   int `json:"a" db:"a"`
	AH  int `json:"ah" db:"ah"` // A, honors
	B   int `json:"b" db:"b"`
	BH  int `json:"bh" db:"bh"` // B, honors
	C   int `json:"c" db:"c"`
	D   int `json:"d" db:"d"`
	F   int `json:"f" db:"f"`
	ADV int `json:"adv" db:"adv"` // advanced
	CR  int `json:"cr" db:"cr"`   // credit
	DFR int `json:"dfr" db:"dfr"` // deferred
	I   int `json:"i" db:"i"`     // incomplete
	NG  int `json:"ng" db:"ng"`   // no grade
	NR  int `json:"nr" db:"nr"`   // no report
	O   int `json:"o" db:"o"`     // other
	PR  int `json:"pr" db:"pr"`   // progress
	PS  int `json:"ps" db:"ps"`   // pass
	S   int `json:"s" db:"s"`     // satisfactory
	SH  int `json:"sh" db:"sh"`   // satisfactory, honors
	U   int `json:"u" db:"u"`     // unsatisfactory
	W   int `json:"w" db:"w"`     // withdraw

	PrimaryInstructor string `json:"primary_instructor" db:"primary_instructor"`
	Name2             string `json:"name2" db:"name2"`
	Name3             string `json:"name3" db:"name3"`

	GradeRegs int `json:"grade_regs" db:"grade_regs"` // total registrants
}
