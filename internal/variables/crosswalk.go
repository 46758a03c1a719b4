package variables

// InterviewNumber is the crosswalk name of the family-file interview number,
// the column that links a family record to the individual file.
const InterviewNumber = "interview_number"

func commonVariables() []Entry {
	return []Entry{
		{
			Name:        InterviewNumber,
			Description: "Interview number (family ID for year)",
			Category:    CategoryID,
			Codes: map[int]string{
				2021: "ER78002", 2019: "ER72002", 2017: "ER66002", 2015: "ER60002",
				2013: "ER53002", 2011: "ER47302", 2009: "ER42002", 2007: "ER36002",
				2005: "ER25002", 2003: "ER21002", 2001: "ER17002", 1999: "ER13002",
				1997: "ER10002",
			},
		},
		{
			Name:        "total_family_income",
			Description: "Total family money income",
			Category:    CategoryIncome,
			Codes: map[int]string{
				2021: "ER81775", 2019: "ER77448", 2017: "ER71426", 2015: "ER65349",
				2013: "ER58152", 2011: "ER52343", 2009: "ER46935", 2007: "ER41027",
				2005: "ER28037", 2003: "ER24099", 2001: "ER20456", 1999: "ER16462",
				1997: "ER12079", 1996: "ER9244", 1995: "ER6993", 1994: "ER4153",
				1993: "V23322", 1992: "V22406", 1991: "V21481", 1990: "V20651",
				1989: "V17533", 1988: "V16144", 1987: "V14670", 1986: "V13623",
				1985: "V12371", 1984: "V11022", 1983: "V10419", 1982: "V8689",
				1981: "V8065", 1980: "V7412", 1979: "V6766", 1978: "V6173",
				1977: "V5626", 1976: "V5029", 1975: "V4379", 1974: "V3676",
				1973: "V3051", 1972: "V2408", 1971: "V1904", 1970: "V1514",
				1969: "V1196", 1968: "V81",
			},
		},
		{
			Name:        "head_labor_income",
			Description: "Head's labor income",
			Category:    CategoryIncome,
			Codes: map[int]string{
				2021: "ER81711", 2019: "ER77384", 2017: "ER71330", 2015: "ER65253",
				2013: "ER58056", 2011: "ER52247",
			},
		},
		{
			Name:        "wife_labor_income",
			Description: "Wife's labor income",
			Category:    CategoryIncome,
			Codes: map[int]string{
				2021: "ER81743", 2019: "ER77416", 2017: "ER71362", 2015: "ER65285",
				2013: "ER58088", 2011: "ER52279",
			},
		},
		{
			Name:        "total_wealth",
			Description: "Total family wealth (assets - debts)",
			Category:    CategoryWealth,
			Codes: map[int]string{
				2021: "ER81850", 2019: "ER77511", 2017: "ER71485", 2015: "ER65408",
				2013: "ER58211", 2011: "ER52394", 2009: "ER46970", 2007: "ER46938",
				2005: "S817", 2003: "S617", 2001: "S417", 1999: "S317",
				1994: "S117", 1989: "S117", 1984: "S117",
			},
		},
		{
			Name:        "age_head",
			Description: "Age of head",
			Category:    CategoryDemographics,
			Codes: map[int]string{
				2021: "ER81394", 2019: "ER77069", 2017: "ER71017", 2015: "ER64943",
				2013: "ER57739", 2011: "ER51904", 2009: "ER46543", 2007: "ER40565",
				2005: "ER27393", 2003: "ER23426", 2001: "ER19989", 1999: "ER15928",
				1997: "ER11760",
			},
		},
		{
			Name:        "family_size",
			Description: "Number of persons in family unit",
			Category:    CategoryDemographics,
			Codes: map[int]string{
				2021: "ER81389", 2019: "ER77064", 2017: "ER71012", 2015: "ER64938",
				2013: "ER57734", 2011: "ER51899", 2009: "ER46538", 2007: "ER40560",
				2005: "ER27388", 2003: "ER23421", 2001: "ER19984", 1999: "ER15923",
				1997: "ER11755",
			},
		},
		{
			Name:        "marital_status",
			Description: "Marital status of head",
			Category:    CategoryDemographics,
			Codes: map[int]string{
				2021: "ER81395", 2019: "ER77070", 2017: "ER71018", 2015: "ER64944",
				2013: "ER57740", 2011: "ER51905", 2009: "ER46544", 2007: "ER40566",
				2005: "ER27394", 2003: "ER23427", 2001: "ER19990", 1999: "ER15929",
				1997: "ER11761",
			},
		},
		{
			Name:        "family_weight",
			Description: "Family weight",
			Category:    CategoryWeight,
			Codes: map[int]string{
				2021: "ER81856", 2019: "ER77516", 2017: "ER71538", 2015: "ER65462",
				2013: "ER58257", 2011: "ER52436", 2009: "ER47012", 2007: "ER41069",
				2005: "ER28078", 2003: "ER24180", 2001: "ER20459", 1999: "ER16519",
				1997: "ER12223",
			},
		},
	}
}
