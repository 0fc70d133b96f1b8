package ble

import (
	"tinygo.org/x/bluetooth"
)

// Start registers the GATT service on adapter, binds every characteristic
// to s and begins advertising. The adapter must not have been enabled by
// another user.
func Start(adapter *bluetooth.Adapter, s *Service) error {
	if err := adapter.Enable(); err != nil {
		return err
	}
	svcUUID, err := bluetooth.ParseUUID(ServiceUUID)
	if err != nil {
		return err
	}

	var handles [numChars]bluetooth.Characteristic
	configs := make([]bluetooth.CharacteristicConfig, 0, numChars)
	for i := range Chars {
		ch := Chars[i]
		u, err := bluetooth.ParseUUID(ch.UUID)
		if err != nil {
			return err
		}
		cfg := bluetooth.CharacteristicConfig{
			Handle: &handles[ch.ID],
			UUID:   u,
			Value:  []byte(s.Value(ch.ID)),
			Flags:  permissions(ch),
		}
		if ch.Write {
			cfg.WriteEvent = func(_ bluetooth.Connection, _ int, value []byte) {
				if err := s.HandleWrite(ch.ID, value); err != nil {
					println("[ble] write", ch.Desc, "rejected:", err.Error())
				}
			}
		}
		configs = append(configs, cfg)
	}
	if err := adapter.AddService(&bluetooth.Service{
		UUID:            svcUUID,
		Characteristics: configs,
	}); err != nil {
		return err
	}
	for i := range handles {
		s.Bind(CharID(i), &handles[i])
	}

	adv := adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    LocalName,
		ServiceUUIDs: []bluetooth.UUID{svcUUID},
	}); err != nil {
		return err
	}
	return adv.Start()
}

func permissions(ch Char) bluetooth.CharacteristicPermissions {
	var p bluetooth.CharacteristicPermissions
	if ch.Read {
		p |= bluetooth.CharacteristicReadPermission
	}
	if ch.Write {
		p |= bluetooth.CharacteristicWritePermission
	}
	if ch.Notify {
		p |= bluetooth.CharacteristicNotifyPermission
	}
	return p
}
