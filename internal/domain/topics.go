package domain

// Topic enumerations per subject and grade, mirroring the NCERT-aligned
// syllabus the question bank is built around.

var imoTopicsGrade7 = []string{
	"Number Systems", "Polynomials", "Coordinate Geometry", "Linear Equations in Two Variables",
	"Introduction to Euclid's Geometry", "Lines and Angles", "Triangles", "Quadrilaterals",
	"Areas of Parallelograms and Triangles", "Circles", "Constructions", "Heron's Formula",
	"Surface Areas and Volumes", "Statistics", "Probability",
}

var nsoTopicsGrade7 = []string{
	"Matter in Our Surroundings", "Is Matter Around Us Pure", "Atoms and Molecules",
	"Structure of the Atom", "The Fundamental Unit of Life", "Tissues",
	"Diversity in Living Organisms", "Motion", "Force and Laws of Motion", "Gravitation",
	"Work and Energy", "Sound", "Why Do We Fall Ill", "Natural Resources",
	"Improvement in Food Resources",
}

var ieoTopicsGrade7 = []string{
	"Vocabulary", "Grammar", "Reading Comprehension", "Spoken and Written Expression",
}

var icsoTopicsGrade7 = []string{
	"Fundamentals of Computer", "MS-Word", "MS-PowerPoint", "MS-Excel", "Internet & E-mail",
	"Introduction to QBasic", "Networking", "Cyber Security",
}

var imoTopicsGrade6 = []string{
	"Knowing our Numbers", "Whole Numbers", "Playing with Numbers", "Basic Geometrical Ideas",
	"Understanding Elementary Shapes", "Integers", "Fractions", "Decimals", "Data Handling",
	"Mensuration", "Algebra", "Ratio and Proportion", "Symmetry", "Practical Geometry",
}

var nsoTopicsGrade6 = []string{
	"Food: Where Does It Come From?", "Components of Food", "Fibre to Fabric",
	"Sorting Materials into Groups", "Separation of Substances", "Changes Around Us",
	"Getting to Know Plants", "Body Movements", "The Living Organisms and Their Surroundings",
	"Motion and Measurement of Distances", "Light, Shadows and Reflections",
	"Electricity and Circuits", "Fun with Magnets", "Water", "Air Around Us",
	"Garbage In, Garbage Out",
}

var ieoTopicsGrade6 = []string{
	"Jumbled Words", "Words and their Meanings", "Words and their Opposites",
	"Identify the Word from the Picture", "Nouns", "Pronouns", "Verbs", "Adverbs",
	"Adjectives", "Articles", "Prepositions", "Conjunctions", "Tenses", "Punctuation",
	"Reading Comprehension",
}

var icsoTopicsGrade6 = []string{
	"Introduction to Computers", "Parts of a Computer", "Uses of Computer",
	"Input and Output Devices", "Introduction to MS-Paint", "Introduction to MS-Word 2010",
	"Internet and E-mail", "Introduction to Scratch Programming",
}

// TopicsFor returns the full topic enumeration for a subject and grade.
// Unknown combinations return nil.
func TopicsFor(subject Subject, grade Grade) []string {
	switch grade {
	case Grade6:
		switch subject {
		case SubjectIMO:
			return imoTopicsGrade6
		case SubjectNSO:
			return nsoTopicsGrade6
		case SubjectIEO:
			return ieoTopicsGrade6
		case SubjectICSO:
			return icsoTopicsGrade6
		}
	case Grade7:
		switch subject {
		case SubjectIMO:
			return imoTopicsGrade7
		case SubjectNSO:
			return nsoTopicsGrade7
		case SubjectIEO:
			return ieoTopicsGrade7
		case SubjectICSO:
			return icsoTopicsGrade7
		}
	}
	return nil
}
