package source

// GDELT 2.1 Event export column positions. The feed ships a headerless
// tab-separated table with this exact order; the positions are an external
// contract and must not be reordered. Versioned against the GDELT 2.1
// Event Database codebook.
const (
	colGlobalEventID = iota // 0
	colSQLDate
	colMonthYear
	colYear
	colFractionDate
	colActor1Code // 5
	colActor1Name
	colActor1CountryCode
	colActor1KnownGroupCode
	colActor1EthnicCode
	colActor1Religion1Code
	colActor1Religion2Code
	colActor1Type1Code
	colActor1Type2Code
	colActor1Type3Code
	colActor2Code // 15
	colActor2Name
	colActor2CountryCode
	colActor2KnownGroupCode
	colActor2EthnicCode
	colActor2Religion1Code
	colActor2Religion2Code
	colActor2Type1Code
	colActor2Type2Code
	colActor2Type3Code
	colIsRootEvent // 25
	colEventCode
	colEventBaseCode
	colEventRootCode
	colQuadClass
	colGoldsteinScale // 30
	colNumMentions
	colNumSources
	colNumArticles
	colAvgTone
	colActor1GeoType // 35
	colActor1GeoFullName
	colActor1GeoCountryCode
	colActor1GeoADM1Code
	colActor1GeoADM2Code
	colActor1GeoLat // 40
	colActor1GeoLong
	colActor1GeoFeatureID
	colActor2GeoType
	colActor2GeoFullName
	colActor2GeoCountryCode // 45
	colActor2GeoADM1Code
	colActor2GeoADM2Code
	colActor2GeoLat
	colActor2GeoLong
	colActor2GeoFeatureID // 50
	colActionGeoType
	colActionGeoFullName
	colActionGeoCountryCode
	colActionGeoADM1Code
	colActionGeoADM2Code // 55
	colActionGeoLat
	colActionGeoLong
	colActionGeoFeatureID
	colDateAdded
	colSourceURL // 60

	numEventColumns // 61
)
