package factory

// DefaultRoster is the club list events are drawn from when none is configured.
var DefaultRoster = []string{
	"FC Bayern Munich",
	"SV Werder Bremen",
	"Borussia Dortmund",
	"VfB Stuttgart",
	"Hamburger SV",
	"Borussia Mönchengladbach",
	"Eintracht Frankfurt",
	"FC Schalke 04",
	"FC Köln",
	"FC Kaiserslautern",
	"Bayer 04 Leverkusen",
	"Hertha BSC",
	"VfL Bochum",
	"FC Nürnberg",
	"Hannover 96",
	"MSV Duisburg",
	"VfL Wolfsburg",
	"Fortuna Düsseldorf",
	"Karlsruher SC",
	"SC Freiburg",
	"Eintracht Braunschweig",
	"TSV 1860 München",
	"Arminia Bielefeld",
	"FSV Mainz 05",
	"TSG 1899 Hoffenheim",
	"KFC Uerdingen 05",
	"F.C. Hansa Rostock",
	"FC Augsburg",
	"FC St. Pauli",
	"SV Waldhof Mannheim",
	"Kickers Offenbach",
	"Rot-Weiss Essen",
	"RB Leipzig",
	"FC Energie Cottbus",
	"FC Saarbrücken",
	"SV Darmstadt 98",
	"Alemannia Aachen",
	"Dynamo Dresden",
	"SG Wattenscheid 09",
	"Rot-Weiß Oberhausen",
	"FC Union Berlin",
	"FC 08 Homburg",
	"Wuppertaler SV",
	"Borussia Neunkirchen",
	"SpVgg Greuther Fürth",
	"SC Paderborn 07",
	"FC Ingolstadt 04",
	"SpVgg Unterhaching",
	"Stuttgarter Kickers",
	"Tennis Borussia Berlin",
	"SSV Ulm 1846",
	"VfB Leipzig",
	"Blau-Weiß 1890 Berlin",
	"SC Fortuna Köln",
	"SC Tasmania 1900 Berlin",
	"SC Preußen Münster",
}
