package model

// Option is one entry of a constrained form vocabulary. Value is what gets
// rendered into prompts; Label is what the UI shows.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// RaceOther is the sentinel race value that defers to Character.CustomRace.
const RaceOther = "Other..."

var Races = []Option{
	{Value: "Indonesia", Label: "Indonesia"},
	{Value: "Indonesia-Jawa", Label: "Indonesia-Jawa"},
	{Value: "Indonesia-Sunda", Label: "Indonesia-Sunda"},
	{Value: "Indonesia-Minang", Label: "Indonesia-Minang"},
	{Value: "Indonesia-Batak", Label: "Indonesia-Batak"},
	{Value: "Indonesia-Padang", Label: "Indonesia-Padang"},
	{Value: "Indonesia-Melayu", Label: "Indonesia-Melayu"},
	{Value: "Indonesia-Bugis", Label: "Indonesia-Bugis"},
	{Value: "Indonesia-Dayak", Label: "Indonesia-Dayak"},
	{Value: "Indonesia-Asmat", Label: "Indonesia-Asmat"},
	{Value: "Asia Tenggara", Label: "Asia Tenggara"},
	{Value: "Asia Timur", Label: "Asia Timur"},
	{Value: "Asia Selatan", Label: "Asia Selatan"},
	{Value: "Timur Tengah", Label: "Timur Tengah"},
	{Value: "Arab", Label: "Arab"},
	{Value: "Afrika", Label: "Afrika"},
	{Value: "Eropa", Label: "Eropa"},
	{Value: "Hispanik/Latin", Label: "Hispanik/Latin"},
	{Value: "Pribumi Amerika", Label: "Pribumi Amerika"},
	{Value: RaceOther, Label: "Lainnya..."},
}

var Genders = []Option{
	{Value: "Pria", Label: "Pria"},
	{Value: "Wanita", Label: "Wanita"},
	{Value: "Non-Biner", Label: "Non-Biner"},
}

var Voices = []Option{
	{Value: "Alto", Label: "Alto"},
	{Value: "Bass", Label: "Bass"},
	{Value: "Baritone", Label: "Baritone"},
	{Value: "Soprano", Label: "Soprano"},
	{Value: "Tenor", Label: "Tenor"},
	{Value: "Mezzo-Soprano", Label: "Mezzo-Soprano"},
	{Value: "Hoarse", Label: "Serak"},
	{Value: "Clear", Label: "Jernih"},
	{Value: "Soft", Label: "Lembut"},
	{Value: "Robotic", Label: "Robotic"},
}

var LightingOptions = []Option{
	{Value: "cinematic lighting", Label: "Cinematic Lighting - Pencahayaan dramatis, kontras tinggi"},
	{Value: "golden hour", Label: "Golden Hour - Cahaya hangat dan lembut saat matahari terbit/terbenam"},
	{Value: "blue hour", Label: "Blue Hour - Cahaya biru sejuk setelah matahari terbenam"},
	{Value: "high-key lighting", Label: "High-Key Lighting - Terang, sedikit bayangan, nuansa positif"},
	{Value: "low-key lighting", Label: "Low-Key Lighting - Gelap, banyak bayangan, nuansa misterius"},
	{Value: "neon lighting", Label: "Neon Lighting - Cahaya dari lampu neon, seringkali berwarna-warni"},
	{Value: "natural lighting", Label: "Natural Lighting - Pencahayaan alami dari matahari atau lingkungan"},
}

var CameraAngles = []Option{
	{Value: "eye-level shot", Label: "Eye-Level Shot - Sudut pandang normal, sejajar mata"},
	{Value: "low angle shot", Label: "Low Angle Shot - Dari bawah, membuat subjek terlihat kuat/besar"},
	{Value: "high angle shot", Label: "High Angle Shot - Dari atas, membuat subjek terlihat lemah/kecil"},
	{Value: "dutch angle", Label: "Dutch Angle - Kamera dimiringkan, menciptakan ketegangan"},
	{Value: "birds-eye view", Label: "Bird's-Eye View - Tepat dari atas, seperti pandangan burung"},
	{Value: "worms-eye view", Label: "Worm's-Eye View - Tepat dari bawah, melihat ke atas"},
}

var ShotTypes = []Option{
	{Value: "wide shot", Label: "Wide Shot - Menampilkan subjek dan lingkungannya secara luas"},
	{Value: "full shot", Label: "Full Shot - Menampilkan seluruh tubuh subjek dari kepala hingga kaki"},
	{Value: "medium shot", Label: "Medium Shot - Menampilkan subjek dari pinggang ke atas"},
	{Value: "close-up shot", Label: "Close-Up Shot - Menampilkan wajah subjek secara detail"},
	{Value: "extreme close-up", Label: "Extreme Close-Up - Menampilkan bagian tertentu dari wajah (misal: mata)"},
	{Value: "establishing shot", Label: "Establishing Shot - Shot sangat lebar di awal untuk menunjukkan lokasi"},
}

func containsValue(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func IsRace(v string) bool   { return containsValue(Races, v) }
func IsGender(v string) bool { return containsValue(Genders, v) }
func IsVoice(v string) bool  { return containsValue(Voices, v) }

// RaceValues returns the race vocabulary without the free-text sentinel,
// suitable for constraining the character-analysis model.
func RaceValues() []string {
	out := make([]string, 0, len(Races)-1)
	for _, o := range Races {
		if o.Value == RaceOther {
			continue
		}
		out = append(out, o.Value)
	}
	return out
}

// DefaultEnvironment mirrors the initial form state: non-empty constrained
// fields default to the first vocabulary entry, free text starts empty.
func DefaultEnvironment() EnvironmentSettings {
	return EnvironmentSettings{
		Lighting:    LightingOptions[0].Value,
		CameraAngle: CameraAngles[0].Value,
		ShotType:    ShotTypes[0].Value,
	}
}
