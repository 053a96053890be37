package store

import "context"

// Channel names the realtime listener subscribes to. Kept in the store
// package because the triggers below are the only producers.
const (
	MessagesChannel = "messages_channel"
	SessionsChannel = "sessions_channel"
	DevicesChannel  = "devices_channel"
)

// EnsureNotifyTriggers installs the pg_notify triggers that feed the
// realtime bus. Postgres only; AutoMigrate cannot express triggers, so
// they are applied as idempotent raw SQL at startup.
func (s *Store) EnsureNotifyTriggers(ctx context.Context) error {
	stmts := []string{
		`CREATE OR REPLACE FUNCTION notify_message_insert() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('messages_channel', json_build_object(
				'type', 'message',
				'user_id', NEW.to_user_id::text,
				'device_id', NEW.to_device_id::text,
				'chat_id', NEW.chat_id::text,
				'message_id', NEW.id::text
			)::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS messages_notify ON messages`,
		`CREATE TRIGGER messages_notify AFTER INSERT ON messages
			FOR EACH ROW EXECUTE FUNCTION notify_message_insert()`,

		`CREATE OR REPLACE FUNCTION notify_session_change() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('sessions_channel', json_build_object(
				'type', 'session',
				'user_id', (SELECT user_id::text FROM devices WHERE id = NEW.receiver_device_id),
				'session_id', NEW.id::text,
				'chat_id', NEW.chat_id::text
			)::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS sessions_notify ON sessions`,
		`CREATE TRIGGER sessions_notify AFTER INSERT OR UPDATE ON sessions
			FOR EACH ROW EXECUTE FUNCTION notify_session_change()`,

		`CREATE OR REPLACE FUNCTION notify_device_insert() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('devices_channel', json_build_object(
				'type', 'device',
				'user_id', NEW.user_id::text,
				'device_id', NEW.id::text
			)::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS devices_notify ON devices`,
		`CREATE TRIGGER devices_notify AFTER INSERT ON devices
			FOR EACH ROW EXECUTE FUNCTION notify_device_insert()`,
	}
	for _, stmt := range stmts {
		if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
