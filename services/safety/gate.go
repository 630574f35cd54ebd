package safety

import (
	"strings"

	"go.uber.org/zap"
)

// RefusalMessage is the fixed user-facing text for rejected questions.
const RefusalMessage = "Maaf ya, aku cuma bisa bantu pertanyaan seputar kehamilan dan kesehatan ibu hamil. Ada yang mau ditanyain soal kehamilanmu?"

// maxQuestionLen bounds question length before any expensive work.
const maxQuestionLen = 5000

// allowTerms is the pregnancy/health vocabulary. A question must match
// at least one of these to pass the gate.
var allowTerms = []string{
	"hamil", "kehamilan", "bumil", "ibu hamil", "pregnant", "pregnancy",
	"janin", "bayi", "fetus", "baby", "anak", "trimester",
	"mual", "muntah", "morning sickness", "ngidam", "eneg",
	"kontraksi", "persalinan", "melahirkan", "lahir", "kelahiran", "partus",
	"nutrisi", "makanan", "gizi", "makan", "minum", "diet",
	"vitamin", "suplemen", "asam folat", "zat besi", "kalsium", "protein",
	"anemia", "diabetes", "gestasional", "preeklamsia", "hipertensi", "darah tinggi",
	"usg", "periksa", "kontrol", "kandungan", "dokter kandungan", "bidan", "obgyn",
	"susu", "asi", "menyusui", "laktasi", "post partum", "nifas",
	"keguguran", "prematur", "caesar", "sectio", "episiotomi",
	"gerakan", "tendangan", "detak jantung", "denyut",
	"mood", "emosi", "depresi", "cemas", "stress", "khawatir", "takut", "sedih",
	"rahim", "plasenta", "tali pusat", "air ketuban", "serviks",
	"kontrasepsi", "program hamil", "promil", "subur", "ovulasi", "menstruasi", "haid",
	"pasangan", "suami", "hubungan", "intim",
	"capek", "lelah", "lemas", "pusing", "sakit kepala", "pegal", "nyeri", "kram",
	"varises", "wasir", "ambeien", "sembelit", "konstipasi", "sesak", "heartburn",
	"bengkak", "edema", "stretch mark", "jerawat", "kulit", "gatal",
	"olahraga", "senam", "yoga", "exercise",
	"tidur", "istirahat", "posisi", "bantal",
	"perut", "pinggang", "punggung", "payudara", "puting",
	"berat badan", "berat", "ukuran",
	"tes kehamilan", "test pack", "testpack", "hpht", "hpl", "usia kandungan",
	"pemeriksaan", "tes darah", "urine", "hasil lab",
}

// denyTerms are clearly off-domain topics. Any match rejects, even when
// an allow term is also present.
var denyTerms = []string{
	"presiden", "politik", "pemerintah", "pemilu", "pilkada",
	"game", "mobile legend", "pubg", "free fire", "minecraft", "valorant",
	"sepak bola", "liga", "piala dunia", "pertandingan", "main bola",
	"film", "drama korea", "drakor", "netflix", "movie", "bioskop", "anime",
	"resep masakan", "cara masak", "tumis", "goreng", "rebus",
	"lagu", "penyanyi", "band", "konser",
	"mobil", "motor", "kendaraan", "transportasi", "kereta",
	"handphone", "laptop", "komputer", "gadget", "smartphone",
	"pelajaran", "sekolah", "ujian", "kuliah", "kampus", "matematika",
	"wisata", "liburan", "jalan-jalan", "travelling", "pantai", "gunung",
	"cuaca", "hujan", "mendung", "banjir",
}

// Decision is the outcome of the safety gate.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate is a conservative keyword-based domain filter: deny-list matches
// reject, and so does the absence of any domain vocabulary. Ambiguous
// inputs are rejected by default.
type Gate struct {
	allow  []string
	deny   []string
	logger *zap.Logger
}

// NewGate creates a Gate with the built-in keyword sets.
func NewGate(logger *zap.Logger) *Gate {
	return &Gate{allow: allowTerms, deny: denyTerms, logger: logger}
}

// Check decides whether question is in-domain. It runs before any
// retrieval or generation work.
func (g *Gate) Check(question string) Decision {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return Decision{Reason: "empty question"}
	}
	if len(question) > maxQuestionLen {
		return Decision{Reason: "question too long"}
	}

	lower := strings.ToLower(question)

	for _, term := range g.deny {
		if strings.Contains(lower, term) {
			g.logger.Info("question rejected by deny list",
				zap.String("term", term))
			return Decision{Reason: "off-domain term: " + term}
		}
	}

	for _, term := range g.allow {
		if strings.Contains(lower, term) {
			return Decision{Allowed: true}
		}
	}

	g.logger.Info("question rejected, no domain vocabulary matched")
	return Decision{Reason: "no domain vocabulary"}
}
