package storage

import (
	"fmt"
	"os"

	"github.com/kirillm/hft-bot/internal/domain"
	"gopkg.in/yaml.v3"
)

// SaveSettings пишет снапшот настроек движка в YAML-файл.
// Ключи API в файл не попадают (см. yaml-теги EngineSettings), они живут
// только в окружении и в памяти процесса.
func SaveSettings(path string, settings domain.EngineSettings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings snapshot: %w", err)
	}
	return nil
}

// LoadSettings читает снапшот настроек. Отсутствующий или битый файл не
// является ошибкой: возвращается found=false и вызывающий остается на
// значениях из окружения.
func LoadSettings(path string) (settings domain.EngineSettings, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, false, nil
		}
		return settings, false, fmt.Errorf("failed to read settings snapshot: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return domain.EngineSettings{}, false, nil
	}
	return settings, true, nil
}
