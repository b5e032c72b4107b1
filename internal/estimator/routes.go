package estimator

// baseFaresEUR holds one-stop economy reference fares in EUR for routes the
// model was tuned against. Keys are "ORG-DST"; both directions are looked up.
var baseFaresEUR = map[string]float64{
	// Iberia domestic and short-haul
	"MAD-BCN": 95,
	"MAD-AGP": 82,
	"MAD-PMI": 88,
	"MAD-VLC": 75,
	"MAD-SVQ": 70,
	"MAD-BIO": 78,
	"BCN-PMI": 64,
	"BCN-AGP": 92,
	"BCN-IBZ": 70,
	"MAD-LIS": 105,
	"BCN-OPO": 110,

	// Western Europe
	"MAD-LHR": 140,
	"MAD-CDG": 135,
	"MAD-AMS": 150,
	"MAD-FCO": 130,
	"MAD-MXP": 125,
	"MAD-BRU": 145,
	"MAD-ZRH": 160,
	"MAD-GVA": 155,
	"BCN-LHR": 130,
	"BCN-CDG": 115,
	"BCN-AMS": 140,
	"BCN-FCO": 105,
	"BCN-MUC": 150,
	"LIS-LHR": 145,
	"LIS-CDG": 140,
	"OPO-CDG": 125,

	// Central and northern Europe
	"MAD-FRA": 165,
	"MAD-MUC": 170,
	"MAD-VIE": 180,
	"MAD-CPH": 190,
	"MAD-ARN": 210,
	"MAD-OSL": 215,
	"BCN-BER": 160,
	"BCN-PRG": 155,
	"BCN-WAW": 175,
	"MAD-DUB": 150,
	"MAD-EDI": 165,

	// Eastern Mediterranean
	"MAD-ATH": 220,
	"BCN-ATH": 200,
	"MAD-IST": 240,
	"BCN-IST": 225,

	// Atlantic islands and North Africa
	"MAD-TFN": 130,
	"MAD-LPA": 135,
	"MAD-RAK": 120,
	"BCN-RAK": 130,
	"MAD-TUN": 150,

	// Long haul
	"MAD-JFK": 480,
	"MAD-MEX": 560,
	"MAD-BOG": 540,
	"MAD-EZE": 680,
	"MAD-GRU": 640,
	"MAD-HAV": 610,
	"BCN-JFK": 495,
	"MAD-DXB": 420,
	"MAD-NRT": 720,
}

// airportCoords maps IATA codes to latitude/longitude for distance
// extrapolation when a route is missing from the base-fare table.
var airportCoords = map[string][2]float64{
	"MAD": {40.4719, -3.5626},
	"BCN": {41.2971, 2.0785},
	"AGP": {36.6749, -4.4991},
	"PMI": {39.5517, 2.7388},
	"VLC": {39.4893, -0.4816},
	"SVQ": {37.4180, -5.8931},
	"BIO": {43.3011, -2.9106},
	"IBZ": {38.8729, 1.3731},
	"LIS": {38.7813, -9.1359},
	"OPO": {41.2481, -8.6814},
	"LHR": {51.4700, -0.4543},
	"CDG": {49.0097, 2.5479},
	"AMS": {52.3105, 4.7683},
	"FCO": {41.8003, 12.2389},
	"MXP": {45.6306, 8.7281},
	"BRU": {50.9014, 4.4844},
	"ZRH": {47.4647, 8.5492},
	"GVA": {46.2381, 6.1090},
	"MUC": {48.3538, 11.7861},
	"FRA": {50.0379, 8.5622},
	"VIE": {48.1103, 16.5697},
	"CPH": {55.6180, 12.6508},
	"ARN": {59.6498, 17.9238},
	"OSL": {60.1976, 11.1004},
	"BER": {52.3667, 13.5033},
	"PRG": {50.1008, 14.2632},
	"WAW": {52.1672, 20.9679},
	"DUB": {53.4264, -6.2499},
	"EDI": {55.9508, -3.3615},
	"ATH": {37.9364, 23.9445},
	"IST": {41.2753, 28.7519},
	"TFN": {28.4827, -16.3415},
	"LPA": {27.9319, -15.3866},
	"RAK": {31.6069, -8.0363},
	"TUN": {36.8510, 10.2272},
	"JFK": {40.6413, -73.7781},
	"MEX": {19.4363, -99.0721},
	"BOG": {4.7016, -74.1469},
	"EZE": {-34.8222, -58.5358},
	"GRU": {-23.4356, -46.4731},
	"HAV": {22.9892, -82.4091},
	"DXB": {25.2532, 55.3657},
	"NRT": {35.7720, 140.3929},
}
