package usecase

// dutchStopwords holds function words and ultra-common fillers that are never
// worth a spot on a study list.
var dutchStopwords = map[string]bool{
	"aan": true, "als": true, "ben": true, "bent": true, "bij": true,
	"daar": true, "dan": true, "dat": true, "der": true, "deze": true,
	"die": true, "dit": true, "doe": true, "doen": true, "doet": true,
	"door": true, "dus": true, "een": true, "eens": true, "erg": true,
	"gaan": true, "gaat": true, "geen": true, "graag": true, "haar": true,
	"had": true, "hadden": true, "heb": true, "hebben": true, "hebt": true,
	"heeft": true, "heel": true, "hem": true, "hen": true, "het": true,
	"hier": true, "hij": true, "hoe": true, "hun": true, "iets": true,
	"jij": true, "jou": true, "jouw": true, "kan": true, "kom": true,
	"komen": true, "komt": true, "kun": true, "kunnen": true, "kunt": true,
	"maar": true, "mag": true, "mee": true, "meer": true, "met": true,
	"mij": true, "mijn": true, "moet": true, "moeten": true, "mogen": true,
	"naar": true, "nee": true, "niet": true, "nog": true, "nou": true,
	"ook": true, "om": true, "onder": true, "ons": true, "onze": true,
	"op": true, "over": true, "straks": true, "te": true, "toch": true,
	"toe": true, "tot": true, "tussen": true, "uit": true, "uw": true,
	"van": true, "veel": true, "voor": true, "waar": true, "wanneer": true,
	"waren": true, "was": true, "wat": true, "weer": true, "wel": true,
	"welke": true, "wie": true, "wij": true, "wil": true, "willen": true,
	"wilt": true, "worden": true, "wordt": true, "zal": true, "zich": true,
	"zij": true, "zijn": true, "zou": true, "zouden": true, "zult": true,
	"zullen": true,
}

// classroomGlossary maps common beginner vocabulary to English. Extraction
// falls back to an empty translation for words outside the glossary.
var classroomGlossary = map[string]string{
	"aangenaam":   "nice to meet you",
	"alstublieft": "please",
	"antwoord":    "answer",
	"appel":       "apple",
	"appels":      "apples",
	"bedankt":     "thanks",
	"begrijpen":   "to understand",
	"bestellen":   "to order",
	"betalen":     "to pay",
	"boek":        "book",
	"brood":       "bread",
	"café":        "café",
	"euro":        "euro",
	"fiets":       "bicycle",
	"gesprek":     "conversation",
	"gezellig":    "cozy",
	"goedemiddag": "good afternoon",
	"goedemorgen": "good morning",
	"halte":       "stop",
	"herhalen":    "to repeat",
	"huis":        "house",
	"kaart":       "menu",
	"kaas":        "cheese",
	"kilo":        "kilo",
	"koffie":      "coffee",
	"kraam":       "market stall",
	"leren":       "to learn",
	"lekker":      "tasty",
	"links":       "left",
	"markt":       "market",
	"melk":        "milk",
	"misschien":   "maybe",
	"natuurlijk":  "of course",
	"oefenen":     "to practice",
	"proeven":     "to taste",
	"rechtdoor":   "straight ahead",
	"rechts":      "right",
	"rekening":    "bill",
	"samen":       "together",
	"school":      "school",
	"spreken":     "to speak",
	"station":     "station",
	"suiker":      "sugar",
	"thee":        "tea",
	"tram":        "tram",
	"vers":        "fresh",
	"vraag":       "question",
	"vriendelijk": "friendly",
	"water":       "water",
	"welkom":      "welcome",
	"werk":        "work",
	"wonen":       "to live",
	"woord":       "word",
	"zin":         "sentence",
}
