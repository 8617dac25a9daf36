// Package messages holds every user-facing string. Templates use {p} for the
// configured command prefix.
package messages

import (
	"fmt"
	"strings"
	"time"

	"groupkeeper/internal/identity"
)

const (
	NotAdmin         = "*Kamu bukan admin!!*"
	LeaveNotice      = "👋 Maaf, bot ini hanya diizinkan aktif di grup tertentu.\nKeluar otomatis dari grup ini."
	InviteLinkNotice = "🔗 Link grup terdeteksi dan akan dihapus."

	KickDone      = "*Anggota berhasil dikeluarkan.* ✅"
	AddDone       = "*Anggota berhasil ditambahkan.* ✅"
	AddFallback   = "❌ Gagal menambahkan langsung.\n📨 Kirim link ini ke member:\n%s"
	AddErrorLabel = "Gagal Menambahkan Anggota"
	PromoteDone   = "*Anggota berhasil di jadikan admin.*"
	DemoteDone    = "*Anggota berhasil di demote.*"
	CloseDone     = "🔒 *Grup ditutup hanya admin yang bisa chat.*"
	OpenDone      = "🔓 *Grup dibuka semua member bisa chat.*"
	SetNameDone   = "*Nama grup berhasil diubah.*"
	SetDescDone   = "*Deskripsi grup berhasil diubah.*"
	TagAllDefault = "📢 *Perhatian untuk semua anggota!*"

	MaintenanceSet          = "🔧 Mode maintenance *%s*."
	MaintenanceStatus       = "🔧 Status maintenance: *%s*."
	MaintenanceBroadcastOn  = "⛔ *Bot sedang dalam mode maintenance. Harap menunggu hingga bot aktif kembali.*"
	MaintenanceBroadcastOff = "✅ *Bot telah kembali aktif. Silakan lanjutkan aktivitas seperti biasa.*"
	MaintenanceErrorLabel   = "Gagal Kirim Notifikasi Maintenance"

	RestartOwnerOnly = "❌ Hanya owner yang bisa me-restart bot."
	RestartStarting  = "♻️ Mengunduh update terbaru dan me-restart bot..."
	RestartDone      = "✅ Bot berhasil diperbarui. Restarting..."
	RestartFailed    = "❌ Gagal memperbarui bot: %s"

	WarningToggled = "✅ Auto warning telah *%s*."

	GiveawayBadWinners  = "*Jumlah pemenang harus angka lebih dari 0.*"
	GiveawayBadDuration = "*Durasi tidak valid. Contoh: 1d2h30m*"
	GiveawayActive      = "❌ Sudah ada giveaway aktif di grup ini."
	GiveawayNoneNow     = "❌ Tidak ada giveaway aktif saat ini."
	GiveawayNone        = "❌ Tidak ada giveaway aktif."
	GiveawayJoined      = "✅ Kamu berhasil ikut giveaway!"
	GiveawayAlready     = "⚠️ Kamu sudah ikut giveaway ini."
	GiveawayNoEntrants  = "Tidak ada peserta yang ikut."

	ErrorLabelProcessing = "Error Processing Message"
	ErrorLabelUncaught   = "Uncaught Exception"
	ErrorLabelSweep      = "Gagal Umumkan Pemenang Giveaway"
	ErrorLabelPersist    = "Gagal Menyimpan Data"

	AuditDigestHeader = "📊 *Ringkasan aktivitas moderasi*"

	ownerReport = "🚨 *%s*\n\n```\n%s\n```"

	// MaxReportLength bounds the error detail sent to the owner.
	MaxReportLength = 4000
)

const menu = `╭───❏ 🛠 ADMIN MENU ❏───╮
│
├ ✦ {p}kick @user
├ ✦ {p}add 62xxx
├ ✦ {p}promote @user
├ ✦ {p}demote @user
├ ✦ {p}open (membuka grup)
├ ✦ {p}close (menutup grup)
├ ✦ {p}setname <nama grup>
├ ✦ {p}setdesc <deskripsi grup>
├ ✦ {p}togglewarning
│
├ ✦ {p}giveaway (deskripsi, jumlah_pemenang, durasi)
├ ✦ {p}joingiveaway
├ ✦ {p}listgiveaway
├ ✦ {p}endgiveaway
└ ✦ {p}tagall [pesan opsional]

📌 Khusus admin grup saja!
╰──────────────────────╯`

const (
	unknownCommand   = "❓ Command tidak dikenal. Ketik {p}menu untuk melihat daftar perintah."
	addUsage         = "*Format salah. Gunakan: {p}add 628xxxxx*"
	maintenanceUsage = "🔧 Gunakan perintah:\n\n{p}maintenance on\n{p}maintenance off\n{p}maintenance status"
	maintenanceBad   = "❌ Perintah tidak dikenali.\nGunakan:\n{p}maintenance on / off / status"
	giveawayUsage    = "❌ Format salah.\n{p}giveaway <deskripsi> , <jumlah_pemenang> , <durasi>\nContoh: {p}giveaway Hadiah Bot , 3 , 1d2h30m"
)

func withPrefix(template, prefix string) string {
	return strings.ReplaceAll(template, "{p}", prefix)
}

func Menu(prefix string) string             { return withPrefix(menu, prefix) }
func UnknownCommand(prefix string) string   { return withPrefix(unknownCommand, prefix) }
func AddUsage(prefix string) string         { return withPrefix(addUsage, prefix) }
func MaintenanceUsage(prefix string) string { return withPrefix(maintenanceUsage, prefix) }
func MaintenanceBad(prefix string) string   { return withPrefix(maintenanceBad, prefix) }
func GiveawayUsage(prefix string) string    { return withPrefix(giveawayUsage, prefix) }

// OnOff renders a toggle state the way confirmations phrase it.
func OnOff(active bool) string {
	if active {
		return "diaktifkan"
	}
	return "dinonaktifkan"
}

func ActiveLabel(active bool) string {
	if active {
		return "aktif"
	}
	return "nonaktif"
}

// FormatTime renders t in loc using the id-ID date shape.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2/1/2006, 15.04.05")
}

func GiveawayStarted(prefix, description string, winners int, durationToken string, start, end time.Time, loc *time.Location) string {
	return "🎉 *GIVEAWAY DIMULAI!*\n\n" +
		fmt.Sprintf("📦 Deskripsi : *%s*\n", description) +
		fmt.Sprintf("🏆 Jumlah Pemenang : *%d*\n", winners) +
		fmt.Sprintf("⏳ Durasi : *%s*\n", durationToken) +
		fmt.Sprintf("🕒 Mulai : %s\n", FormatTime(start, loc)) +
		fmt.Sprintf("⏰ Berakhir : %s\n\n", FormatTime(end, loc)) +
		fmt.Sprintf("📥 Ketik *%sjoingiveaway* untuk ikut berpartisipasi!", prefix)
}

// Roster lists participants as a numbered mention list.
func Roster(participants []string) string {
	var b strings.Builder
	b.WriteString("📋 Daftar peserta giveaway:")
	for i, id := range participants {
		fmt.Fprintf(&b, "\n%d. %s", i+1, identity.Mention(id))
	}
	return b.String()
}

func GiveawayResult(description string, winners []string) string {
	if len(winners) == 0 {
		return fmt.Sprintf("⚠️ Giveaway *%s* selesai tapi tidak ada peserta.", description)
	}
	lines := make([]string, 0, len(winners))
	for _, w := range winners {
		lines = append(lines, identity.Mention(w))
	}
	return fmt.Sprintf("🎉 Giveaway *%s* selesai!\n\n🏆 Pemenang:\n%s", description, strings.Join(lines, "\n"))
}

// OwnerReport formats an error report, truncating detail to
// MaxReportLength characters.
func OwnerReport(label, detail string) string {
	return fmt.Sprintf(ownerReport, label, Truncate(detail, MaxReportLength))
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for idx := range s {
		if count == n {
			return s[:idx]
		}
		count++
	}
	return s
}
