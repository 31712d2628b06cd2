package config

// DefaultTrustedAccounts is the shipped allow-list of handles whose follows count as vouches.
var DefaultTrustedAccounts = []string{
	// Solana DeFi protocols
	"JupiterExchange", "RaydiumProtocol", "orca_so", "KaminoFinance", "MeteoraAG",
	"saros_xyz", "DriftProtocol", "solendprotocol", "MarinadeFinance", "jito_labs",

	// NFT projects and marketplaces
	"MadLads", "MagicEden", "Lifinity_io", "SolanaMBS", "DegenApeAcademy",
	"okaybears", "famousfoxfed", "CetsOnCreck", "xNFT_Backpack", "tensor_hq",

	// Infrastructure
	"wormholecrypto", "helium", "PythNetwork", "solana", "solanalabs",
	"phantom", "solflare_wallet", "solanaexplorer", "solanabeach_io", "solanafm",

	// Trading platforms
	"solanium_io", "staratlas", "grapeprotocol", "mangomarkets", "bonfida",
	"medianetwork_", "Saber_HQ", "StepFinance_", "tulipprotocol", "SunnyAggregator",

	// Founders and KOLs
	"aeyakovenko", "rajgokal", "VinnyLingham", "TonyGuoga", "Austin_Federa",

	// Media and community
	"Wordcel_xyz", "TrutsXYZ", "StellarSoulNFT", "superteam_xyz", "Bunkr_io",
	"candypay_xyz", "solanabridge", "solana_tourism", "MemeDaoSOL",

	// Superteam chapters
	"superteamIND", "superteamVN", "superteamDE", "superteamUK", "superteamUAE",
	"superteamNG", "superteamBalkan", "superteamMY", "superteamFR", "superteamJP",
	"superteamSG", "superteamCA", "superteamTR", "superteamTH", "superteamPH",
	"superteamMX", "superteamBR",
}
