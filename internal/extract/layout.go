package extract

// Baseline identity columns of the cumulative individual file.
const (
	FamilyIDColumn     = "ER30001" // 1968 interview number
	PersonNumberColumn = "ER30002" // person number within the 1968 family
)

// Individual-file interview number per wave. Sequence and relationship
// columns follow the interview column directly from 1997 on.
var interviewColumns = map[int]string{
	2021: "ER34501", 2019: "ER34301", 2017: "ER34101", 2015: "ER33901",
	2013: "ER33701", 2011: "ER33501", 2009: "ER33401", 2007: "ER33301",
	2005: "ER33201", 2003: "ER33101", 2001: "ER33001", 1999: "ER32001",
	1997: "ER30806", 1996: "ER30733", 1995: "ER30657", 1994: "ER30570",
	1993: "ER30498", 1992: "ER30429", 1991: "ER30373", 1990: "ER30313",
	1989: "ER30246", 1988: "ER30188", 1987: "ER30138", 1986: "ER30091",
	1985: "ER30052", 1984: "ER30020", 1983: "V9071", 1982: "V8691",
	1981: "V8351", 1980: "V7971", 1979: "V7571", 1978: "V7171",
	1977: "V6771", 1976: "V6171", 1975: "V5571", 1974: "V4671",
	1973: "V4171", 1972: "V3171", 1971: "V2571", 1970: "V1971",
	1969: "V1471", 1968: "ER30001",
}

var sequenceColumns = map[int]string{
	2021: "ER34502", 2019: "ER34302", 2017: "ER34102", 2015: "ER33902",
	2013: "ER33702", 2011: "ER33502", 2009: "ER33402", 2007: "ER33302",
	2005: "ER33202", 2003: "ER33102", 2001: "ER33002", 1999: "ER32002",
	1997: "ER30807",
}

var relationshipColumns = map[int]string{
	2021: "ER34503", 2019: "ER34303", 2017: "ER34103", 2015: "ER33903",
	2013: "ER33703", 2011: "ER33503", 2009: "ER33403", 2007: "ER33303",
	2005: "ER33203", 2003: "ER33103", 2001: "ER33003", 1999: "ER32003",
	1997: "ER30808",
}

// InterviewColumn returns the individual-file column holding the family
// interview number for year.
func InterviewColumn(year int) (string, bool) {
	c, ok := interviewColumns[year]
	return c, ok
}

// SequenceColumn returns the sequence-number column for year. Waves before
// 1997 have none in this table.
func SequenceColumn(year int) (string, bool) {
	c, ok := sequenceColumns[year]
	return c, ok
}

// RelationshipColumn returns the relationship-to-head column for year.
func RelationshipColumn(year int) (string, bool) {
	c, ok := relationshipColumns[year]
	return c, ok
}

// IndividualColumns lists the individual-file columns needed to place
// persons into the given waves, including the baseline identity columns.
func IndividualColumns(years []int) []string {
	cols := []string{FamilyIDColumn, PersonNumberColumn}
	for _, y := range years {
		for _, lookup := range []func(int) (string, bool){InterviewColumn, SequenceColumn, RelationshipColumn} {
			if c, ok := lookup(y); ok {
				cols = append(cols, c)
			}
		}
	}
	return cols
}
