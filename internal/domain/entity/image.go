package entity

// MIMETypeJPEG тип, с которым изображение всегда уходит в модель
const MIMETypeJPEG = "image/jpeg"

// ImageHandle ссылка на сохранённое во временный файл изображение.
// Неизменяема после создания.
type ImageHandle struct {
	ID       string // уникальный идентификатор изображения
	Path     string // путь к временному файлу
	MIMEType string // всегда image/jpeg
	Size     int64  // размер в байтах
}
