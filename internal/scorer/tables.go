package scorer

// Tier ranks how frequently a name appears in the reference lists.
type Tier int

const (
	TierNone Tier = iota
	TierOftenSeen
	TierCommon
	TierVeryCommon
)

// baseline returns the starting score for a tier.
func (t Tier) baseline() float64 {
	switch t {
	case TierVeryCommon:
		return 95
	case TierCommon:
		return 80
	case TierOftenSeen:
		return 65
	default:
		return unknownBaseline
	}
}

var maleVeryCommon = []string{
	"james", "john", "robert", "michael", "william", "david", "richard", "joseph",
	"thomas", "charles", "christopher", "daniel", "matthew", "anthony", "mark",
	"donald", "steven", "paul", "andrew", "joshua", "kenneth", "kevin", "brian",
	"george", "timothy", "ronald", "edward", "jason", "jeffrey", "ryan", "jacob",
	"gary", "nicholas", "eric", "jonathan", "stephen", "larry", "justin", "scott",
	"brandon", "benjamin", "samuel", "gregory", "frank", "raymond", "patrick",
}

var maleCommon = []string{
	"jack", "dennis", "jerry", "tyler", "aaron", "henry", "douglas", "peter", "adam",
	"nathan", "zachary", "walter", "kyle", "harold", "carl", "arthur", "gerald",
	"roger", "keith", "jeremy", "lawrence", "albert", "joe", "christian", "austin",
	"willie", "jesse", "ethan", "billy", "bruce", "bryan", "ralph", "roy", "eugene",
	"wayne", "louis", "dylan", "alan", "juan", "noah", "russell", "harry", "randy",
	"philip", "vincent", "gabriel", "bobby", "johnny", "howard", "edwin", "leroy",
	"floyd", "vernon", "clarence", "earl", "herbert", "lloyd", "melvin", "glenn",
	"dale", "duane", "dean", "marvin", "leonard", "norman", "gordon", "francis",
	"alvin", "calvin", "curtis", "darrell", "stanley", "warren", "alfred", "fred",
	"jim", "bill", "bob", "tom", "mike", "dave", "dan", "steve", "ron", "ken", "rick",
}

var maleOftenSeen = []string{
	"orville", "wilbur", "delbert", "lester", "merle", "virgil", "cecil", "chester",
	"clyde", "harvey", "ernest", "jerome", "otto", "herman", "leon", "milton",
	"roland", "rex", "wendell", "eldon", "gene", "glen", "ivan", "karl", "kurt",
	"lyle", "neil", "lowell", "loren", "irvin", "ervin", "emil", "arnold", "bernard",
	"boyd", "dwight", "edgar", "elmer", "everett", "gilbert", "homer", "hubert",
	"lavern", "maurice", "myron", "roscoe", "wilbert", "wilfred", "elwood", "arlo",
	"ray", "don", "duwayne", "darwin", "gale", "verne", "wilmer", "amos", "ezra",
}

var femaleVeryCommon = []string{
	"mary", "patricia", "jennifer", "linda", "elizabeth", "barbara", "susan",
	"jessica", "sarah", "karen", "nancy", "lisa", "betty", "margaret", "sandra",
	"ashley", "kimberly", "emily", "donna", "michelle", "dorothy", "carol", "amanda",
	"melissa", "deborah", "stephanie", "rebecca", "sharon", "laura", "cynthia",
	"kathleen", "amy", "shirley", "angela", "helen", "anna", "brenda", "pamela",
	"judy", "nicole", "emma", "samantha", "katherine", "christine", "debra",
}

var femaleCommon = []string{
	"rachel", "carolyn", "janet", "catherine", "maria", "heather", "diane", "ruth",
	"julie", "olivia", "joyce", "virginia", "victoria", "lauren", "christina", "joan",
	"evelyn", "judith", "megan", "andrea", "cheryl", "hannah", "jacqueline", "martha",
	"gloria", "teresa", "ann", "sara", "madison", "frances", "kathryn", "janice",
	"jean", "abigail", "alice", "sophia", "grace", "denise", "amber", "doris",
	"marilyn", "danielle", "beverly", "isabella", "theresa", "diana", "natalie",
	"brittany", "charlotte", "marie", "kayla", "alexis", "lori", "jane", "joann",
	"connie", "bonnie", "darlene", "elaine", "ellen", "irene", "lois", "peggy",
	"phyllis", "norma", "rita", "sally", "wanda", "sue", "kay", "gail",
}

var femaleOftenSeen = []string{
	"arlene", "delores", "dolores", "edna", "eileen", "elsie", "esther", "ethel",
	"florence", "geraldine", "gladys", "glenda", "joanne", "june", "loretta",
	"lorraine", "lucille", "marjorie", "marlene", "mildred", "pauline", "rosemary",
	"ruby", "sylvia", "thelma", "vera", "verna", "viola", "wilma", "yvonne",
	"beulah", "bernice", "clara", "edith", "fern", "hazel", "ida", "lillian",
	"mabel", "mae", "myrtle", "opal", "pearl", "rose", "vivian", "agnes", "alma",
	"annie", "audrey", "carla", "carole", "cathy", "debbie", "dianne", "gwen",
	"jill", "joy", "marcia", "nora", "patsy", "rhonda", "roberta", "terri", "tina",
	"vicki", "lavonne", "darla", "gertrude", "leona", "velma", "imogene",
}

// unisexNames carry no gender signal on their own.
var unisexNames = []string{
	"terry", "jessie", "jamie", "casey", "taylor", "morgan", "shannon", "dana",
	"kelly", "tracy", "marion", "leslie", "jordan", "lynn", "robin", "jody",
}

var lastVeryCommon = []string{
	"smith", "johnson", "williams", "brown", "jones", "garcia", "miller", "davis",
	"rodriguez", "martinez", "hernandez", "lopez", "gonzalez", "wilson", "anderson",
	"taylor", "moore", "jackson", "martin", "lee", "perez", "thompson", "white",
	"harris", "sanchez", "clark", "ramirez", "lewis", "robinson", "walker", "young",
	"allen", "king", "wright", "scott", "torres", "nguyen", "hill", "flores", "green",
	"adams", "nelson", "baker", "hall", "rivera", "campbell", "mitchell", "carter",
	"roberts",
}

var lastCommon = []string{
	"gomez", "phillips", "evans", "turner", "diaz", "parker", "cruz", "edwards",
	"collins", "reyes", "stewart", "morris", "morales", "murphy", "cook", "rogers",
	"gutierrez", "ortiz", "cooper", "peterson", "bailey", "reed", "ramos", "kim",
	"cox", "ward", "richardson", "watson", "brooks", "chavez", "wood", "bennett",
	"gray", "mendoza", "ruiz", "hughes", "price", "alvarez", "castillo", "sanders",
	"patel", "myers", "long", "ross", "foster", "jimenez", "powell", "jenkins",
	"perry", "sullivan", "bell", "coleman", "butler", "henderson", "barnes",
	"gonzales", "fisher", "vasquez", "simmons", "romero", "patterson", "hamilton",
	"graham", "reynolds", "griffin", "wallace", "moreno", "west", "cole", "hayes",
	"bryant", "herrera", "gibson", "ellis", "tran", "medina", "aguilar", "stevens",
	"murray", "ford", "castro", "marshall", "owens", "harrison", "fernandez",
	"mcdonald", "woods", "washington", "kennedy", "wells", "vargas", "chen", "webb",
	"tucker", "guzman", "burns", "crawford", "olson", "simpson", "porter", "hunter",
	"mendez", "silva", "shaw", "snyder", "mason", "dixon", "munoz", "hunt", "hicks",
	"holmes", "palmer", "wagner", "black", "robertson", "stone", "salazar", "fox",
	"mills", "meyer", "rice", "schmidt", "garza", "daniels", "ferguson", "nichols",
	"stephens", "soto", "weaver", "gardner", "payne", "dunn", "kelley", "spencer",
	"hawkins", "pierce", "hansen", "peters", "santos", "hart", "bradley", "knight",
	"elliott", "cunningham", "duncan", "armstrong", "hudson", "carroll", "lane",
	"riley", "andrews", "berry", "perkins", "hoffman", "johnston", "matthews",
	"pena", "richards", "willis", "carpenter", "sandoval",
}

var lastOftenSeen = []string{
	"schultz", "schneider", "mueller", "becker", "hoffmann", "klein", "wolf",
	"zimmerman", "krueger", "koch", "bauer", "richter", "lang", "schroeder",
	"schwartz", "fischer", "weber", "neumann", "kaiser", "hartman", "vogel",
	"jensen", "nielsen", "larson", "olsen", "christensen", "swanson", "lindquist",
	"carlson", "johansen", "hanson", "pedersen", "erickson", "gustafson", "lund",
	"berg", "kowalski", "nowak", "wisniewski", "novak", "horvath", "kovacs",
	"byrne", "obrien", "o'brien", "oconnor", "o'connor", "mccarthy", "walsh",
	"doyle", "quinn", "keller", "huber", "brandt", "yoder", "stoltzfus",
	"friesen", "penner", "reimer", "unruh", "kauffman", "troyer", "hershberger",
}

// Female-looking endings (-a, -y, -ie, -ine, -elle).
var femaleEndings = []string{"elle", "ine", "ie", "a", "y"}

// genderEndings is the stricter set used for gender inference; -y is
// excluded because it is as common on male names (Gary, Henry).
var genderEndings = []string{"elle", "ine", "ie", "a"}

// Surname suffixes that mark a token as a family name.
var surnameSuffixes = []string{"son", "sen", "berg", "stein", "ski", "sky", "wicz", "witz"}

// Concatenated surname prefixes (McDonald, O'Brien, Fitzgerald, Vanderbilt).
var surnamePrefixes = []struct {
	prefix string
	minLen int
}{
	{"mc", 4},
	{"mac", 6},
	{"o'", 4},
	{"fitz", 6},
	{"vander", 8},
	{"vanden", 8},
	{"della", 7},
	{"dela", 6},
}

// surnameParticles are standalone tokens that attach to the following
// token to form a compound surname (Van Dyke, Mc Donald, De La Cruz).
var surnameParticles = map[string]bool{
	"mc": true, "mac": true, "van": true, "von": true, "de": true, "del": true,
	"della": true, "di": true, "da": true, "du": true, "st": true, "ten": true,
	"ter": true, "o": true, "o'": true,
}

// particleContinuations may follow a particle before the surname proper
// (the "la" in De La Cruz, the "der" in Van Der Berg).
var particleContinuations = map[string]bool{
	"la": true, "las": true, "los": true, "le": true, "der": true, "den": true,
}
